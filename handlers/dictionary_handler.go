package handlers

import (
	"net/http"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/services"
)

// DictionaryHandler exposes the active shorthand dictionary
type DictionaryHandler struct {
	provider services.DictionaryProvider
	logger   services.Logger
}

// NewDictionaryHandler creates a new dictionary handler
func NewDictionaryHandler(provider services.DictionaryProvider, logger services.Logger) *DictionaryHandler {
	if logger == nil {
		logger = services.NoopLogger{}
	}
	return &DictionaryHandler{provider: provider, logger: logger}
}

// GetDictionary handles GET /api/v1/dictionary
func (h *DictionaryHandler) GetDictionary(w http.ResponseWriter, r *http.Request) {
	dict := h.provider.Current()
	writeJSONResponse(w, http.StatusOK, models.DictionaryResponse{
		Source:  h.provider.Source(),
		Count:   dict.Len(),
		Entries: dict.Entries(),
	})
}

// ReloadDictionary handles POST /api/v1/dictionary/reload.
// A failed reload leaves the previous dictionary active.
func (h *DictionaryHandler) ReloadDictionary(w http.ResponseWriter, r *http.Request) {
	dict, err := h.provider.Reload(r.Context())
	if err != nil {
		appErr := errors.WrapError(err, errors.ErrTypeConfiguration, errors.ErrCodeDictionaryUnavailable,
			"dictionary reload failed, previous dictionary kept")
		appErr.StatusCode = http.StatusServiceUnavailable
		writeAppErrorResponse(w, h.logger, appErr.WithDetails(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.ReloadDictionaryResponse{
		Entries: dict.Len(),
		Source:  h.provider.Source(),
	})
}
