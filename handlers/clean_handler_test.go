package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/services"
)

const testJobID = "7f1c2a8e-4c1b-4f0e-9d55-3a2b1c0d9e8f"

// Test helper functions
func setupCleanHandler(maxUpload int64) (*CleanHandler, *MockCleaningService, *MockJobStore) {
	cleaner := new(MockCleaningService)
	jobs := new(MockJobStore)
	handler := NewCleanHandler(cleaner, jobs, services.SupportedInputExtensions, maxUpload, services.NoopLogger{})
	return handler, cleaner, jobs
}

func createCleanRouter(handler *CleanHandler) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/clean", handler.CleanFile).Methods("POST")
	api.HandleFunc("/clean/text", handler.CleanText).Methods("POST")
	api.HandleFunc("/jobs/{id}", handler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/download/{artifact}", handler.DownloadArtifact).Methods("GET")
	api.HandleFunc("/formats", handler.ListFormats).Methods("GET")

	return router
}

func multipartUpload(t *testing.T, filename, content, format string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if format != "" {
		require.NoError(t, writer.WriteField("format", format))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func sampleJob() *models.JobRecord {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.JobRecord{
		ID:           testJobID,
		Filename:     "notes.csv",
		Format:       models.ExportCSV,
		DocumentKind: models.DocumentKindTabular,
		UnitCount:    1,
		Log: []models.ReplacementLogEntry{
			{Original: "BP", Shorthand: "bp", Replacement: "blood pressure", Location: models.Location{Row: 0, Column: 0, Offset: 0, Length: 2}},
			{Original: "bp", Shorthand: "bp", Replacement: "blood pressure", Location: models.Location{Row: 0, Column: 0, Offset: 7, Length: 2}},
		},
		Frequency: models.ReplacementFrequency{"bp": 2},
		Artifacts: map[string]models.Artifact{
			models.ArtifactOutput:  {Name: "cleaned_data.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Clinical Notes\nblood pressure ok\n")},
			models.ArtifactLog:     {Name: "replacement_log.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("original,replacement,location\n")},
			models.ArtifactSummary: {Name: "replacement_summary.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Shorthand,Full Form,Count\n")},
		},
		CreatedAt: created,
		ExpiresAt: created.Add(time.Hour),
	}
}

// Test CleanFile endpoint
func TestCleanFile(t *testing.T) {
	t.Run("successful upload", func(t *testing.T) {
		handler, cleaner, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		job := sampleJob()
		cleaner.On("Clean", mock.Anything, models.Upload{
			Filename: "notes.csv",
			Content:  []byte("Clinical Notes\nBP ok\n"),
			Format:   "csv",
		}).Return(&services.CleaningResult{Job: job}, nil)

		body, contentType := multipartUpload(t, "notes.csv", "Clinical Notes\nBP ok\n", "csv")
		req := httptest.NewRequest("POST", "/api/v1/clean", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response models.CleanJobResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, testJobID, response.JobID)
		assert.Equal(t, 2, response.ReplacementCount)
		assert.Equal(t, []models.FrequencyCount{{Shorthand: "bp", FullForm: "blood pressure", Count: 2}}, response.Frequency)
		assert.Equal(t, "/api/v1/jobs/"+testJobID+"/download/output", response.Downloads.Output)
		assert.Empty(t, response.Downloads.Chart)

		cleaner.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		handler, cleaner, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		body, contentType := multipartUpload(t, "", "", "csv")
		req := httptest.NewRequest("POST", "/api/v1/clean", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), errors.ErrCodeMissingField)
		cleaner.AssertNotCalled(t, "Clean", mock.Anything, mock.Anything)
	})

	t.Run("upload too large", func(t *testing.T) {
		handler, cleaner, _ := setupCleanHandler(512)
		router := createCleanRouter(handler)

		body, contentType := multipartUpload(t, "notes.txt", strings.Repeat("pt c/o SOB\n", 200), "txt")
		req := httptest.NewRequest("POST", "/api/v1/clean", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), errors.ErrCodeFileTooLarge)
		cleaner.AssertNotCalled(t, "Clean", mock.Anything, mock.Anything)
	})

	t.Run("not multipart", func(t *testing.T) {
		handler, _, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		req := httptest.NewRequest("POST", "/api/v1/clean", strings.NewReader(`{"text":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cleaning error maps to status", func(t *testing.T) {
		handler, cleaner, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		cleaner.On("Clean", mock.Anything, mock.Anything).Return(nil,
			errors.NewValidationError(errors.ErrCodeUnsupportedFormat, `unsupported export format "docx"`, nil))

		body, contentType := multipartUpload(t, "notes.csv", "a\n", "docx")
		req := httptest.NewRequest("POST", "/api/v1/clean", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, "validation", apiErr.Type)
		assert.Equal(t, errors.ErrCodeUnsupportedFormat, apiErr.Code)
	})
}

// Test CleanText endpoint
func TestCleanText(t *testing.T) {
	t.Run("successful clean", func(t *testing.T) {
		handler, cleaner, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		resp := &models.CleanTextResponse{
			Original: "pt c/o SOB",
			Cleaned:  "patient complains of shortness of breath",
			Log:      []models.ReplacementLogEntry{},
		}
		cleaner.On("CleanText", mock.Anything, "pt c/o SOB").Return(resp, nil)

		req := httptest.NewRequest("POST", "/api/v1/clean/text", strings.NewReader(`{"text":"pt c/o SOB"}`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.CleanTextResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, resp.Cleaned, got.Cleaned)
		cleaner.AssertExpectations(t)
	})

	t.Run("empty text", func(t *testing.T) {
		handler, cleaner, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		req := httptest.NewRequest("POST", "/api/v1/clean/text", strings.NewReader(`{"text":""}`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		cleaner.AssertNotCalled(t, "CleanText", mock.Anything, mock.Anything)
	})

	t.Run("invalid json", func(t *testing.T) {
		handler, _, _ := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		req := httptest.NewRequest("POST", "/api/v1/clean/text", strings.NewReader(`{"text":`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid request body")
	})
}

// Test GetJob endpoint
func TestGetJob(t *testing.T) {
	t.Run("existing job", func(t *testing.T) {
		handler, _, jobs := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		jobs.On("Get", mock.Anything, testJobID).Return(sampleJob(), nil)

		req := httptest.NewRequest("GET", "/api/v1/jobs/"+testJobID, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var detail models.CleanJobDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
		assert.Equal(t, testJobID, detail.JobID)
		assert.Len(t, detail.Log, 2)
		assert.Equal(t, 7, detail.Log[1].Location.Offset)
	})

	t.Run("unknown job", func(t *testing.T) {
		handler, _, jobs := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		jobs.On("Get", mock.Anything, "missing").Return(nil,
			errors.NewNotFoundError(errors.ErrCodeJobNotFound, "job missing not found or expired", models.ErrNotFound))

		req := httptest.NewRequest("GET", "/api/v1/jobs/missing", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), errors.ErrCodeJobNotFound)
	})
}

// Test DownloadArtifact endpoint
func TestDownloadArtifact(t *testing.T) {
	t.Run("output artifact", func(t *testing.T) {
		handler, _, jobs := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		jobs.On("Get", mock.Anything, testJobID).Return(sampleJob(), nil)

		req := httptest.NewRequest("GET", "/api/v1/jobs/"+testJobID+"/download/output", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="cleaned_data.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "Clinical Notes\nblood pressure ok\n", w.Body.String())
	})

	t.Run("missing chart", func(t *testing.T) {
		handler, _, jobs := setupCleanHandler(1 << 20)
		router := createCleanRouter(handler)

		jobs.On("Get", mock.Anything, testJobID).Return(sampleJob(), nil)

		req := httptest.NewRequest("GET", "/api/v1/jobs/"+testJobID+"/download/chart", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), errors.ErrCodeArtifactNotFound)
	})
}

func TestListFormats(t *testing.T) {
	handler, _, _ := setupCleanHandler(1 << 20)
	router := createCleanRouter(handler)

	req := httptest.NewRequest("GET", "/api/v1/formats", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var formats models.FormatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &formats))
	assert.Equal(t, []string{".csv", ".xlsx", ".txt", ".docx"}, formats.Input)
	assert.Equal(t, models.SupportedExportFormats, formats.Output)
}
