package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/services"
)

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already sent, so an encoding failure can only be dropped
	_ = json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	errorResp := models.APIError{
		Type:    "error",
		Code:    http.StatusText(statusCode),
		Message: message,
		Details: details,
	}

	writeJSONResponse(w, statusCode, errorResp)
}

// writeAppErrorResponse writes an AppError as HTTP response
func writeAppErrorResponse(w http.ResponseWriter, logger services.Logger, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		apiError := models.APIError{
			Type:    string(appErr.Type),
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}

		status := appErr.GetHTTPStatusCode()
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", appErr.Cause, services.String("code", appErr.Code), services.String("message", appErr.Message))
		} else {
			logger.Debug("Request rejected", services.String("code", appErr.Code), services.String("message", appErr.Message))
		}
		writeJSONResponse(w, status, apiError)
		return
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		writeErrorResponse(w, http.StatusServiceUnavailable, "request cancelled", err.Error())
		return
	}

	logger.Error("Unexpected error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", "")
}
