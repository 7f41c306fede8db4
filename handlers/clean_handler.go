package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/services"
	"clinical-note-cleaner/substitution"
)

const maxTextBodyBytes = 1 << 20

// CleanHandler handles upload cleaning and job downloads
type CleanHandler struct {
	cleaner        services.CleaningService
	jobs           services.JobStore
	inputFormats   []string
	maxUploadBytes int64
	logger         services.Logger
}

// NewCleanHandler creates a new clean handler
func NewCleanHandler(cleaner services.CleaningService, jobs services.JobStore, inputFormats []string, maxUploadBytes int64, logger services.Logger) *CleanHandler {
	if logger == nil {
		logger = services.NoopLogger{}
	}
	return &CleanHandler{
		cleaner:        cleaner,
		jobs:           jobs,
		inputFormats:   inputFormats,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// CleanFile handles POST /api/v1/clean
func (h *CleanHandler) CleanFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeAppErrorResponse(w, h.logger, errors.NewValidationError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes), err))
			return
		}
		writeErrorResponse(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAppErrorResponse(w, h.logger, errors.NewValidationError(errors.ErrCodeMissingField, "file is required", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "failed to read upload", err.Error())
		return
	}

	result, err := h.cleaner.Clean(r.Context(), models.Upload{
		Filename: header.Filename,
		Content:  content,
		Format:   r.FormValue("format"),
	})
	if err != nil {
		writeAppErrorResponse(w, h.logger, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, jobSummary(result.Job))
}

// CleanText handles POST /api/v1/clean/text
func (h *CleanHandler) CleanText(w http.ResponseWriter, r *http.Request) {
	var req models.CleanTextRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTextBodyBytes)).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeAppErrorResponse(w, h.logger, errors.NewValidationError(errors.ErrCodeMissingField, err.Error(), err))
		return
	}

	resp, err := h.cleaner.CleanText(r.Context(), req.Text)
	if err != nil {
		writeAppErrorResponse(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// GetJob handles GET /api/v1/jobs/{id}
func (h *CleanHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeAppErrorResponse(w, h.logger, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.CleanJobDetail{
		CleanJobResponse: jobSummary(job),
		Log:              job.Log,
	})
}

// DownloadArtifact handles GET /api/v1/jobs/{id}/download/{artifact}
func (h *CleanHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.jobs.Get(r.Context(), vars["id"])
	if err != nil {
		writeAppErrorResponse(w, h.logger, err)
		return
	}

	artifact, ok := job.Artifacts[vars["artifact"]]
	if !ok {
		writeAppErrorResponse(w, h.logger, errors.NewNotFoundError(errors.ErrCodeArtifactNotFound,
			fmt.Sprintf("job %s has no %q artifact", job.ID, vars["artifact"]), nil))
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.Header().Set("Content-Length", fmt.Sprint(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// ListFormats handles GET /api/v1/formats
func (h *CleanHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.FormatsResponse{
		Input:  h.inputFormats,
		Output: models.SupportedExportFormats,
	})
}

// jobSummary converts a job record to its API representation
func jobSummary(job *models.JobRecord) models.CleanJobResponse {
	base := "/api/v1/jobs/" + job.ID + "/download/"
	links := models.ArtifactLinks{
		Output:  base + models.ArtifactOutput,
		Log:     base + models.ArtifactLog,
		Summary: base + models.ArtifactSummary,
	}
	if _, ok := job.Artifacts[models.ArtifactChart]; ok {
		links.Chart = base + models.ArtifactChart
	}

	return models.CleanJobResponse{
		JobID:            job.ID,
		Filename:         job.Filename,
		InputSHA256:      job.InputSHA256,
		Format:           job.Format,
		DocumentKind:     job.DocumentKind,
		UnitCount:        job.UnitCount,
		ReplacementCount: len(job.Log),
		Frequency:        substitution.SortedFrequency(job.Log),
		Downloads:        links,
		CreatedAt:        job.CreatedAt,
		ExpiresAt:        job.ExpiresAt,
	}
}
