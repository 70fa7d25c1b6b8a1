// Package api exposes the statement extractor over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/observability"
)

const (
	formField = "file"
	// multipart headers and boundaries on top of the file itself
	multipartOverhead = 1 << 20
	maxMemory         = 8 << 20
)

// ExtractHandler handles statement upload requests.
type ExtractHandler struct {
	logger    *observability.Logger
	pipeline  domain.Pipeline
	maxUpload int64
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(logger *observability.Logger, pipeline domain.Pipeline, maxUpload int64) *ExtractHandler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &ExtractHandler{
		logger:    logger,
		pipeline:  pipeline,
		maxUpload: maxUpload,
	}
}

// Extract handles POST /extract with a multipart "file" field.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "file too large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeError(w, http.StatusBadRequest, "file too large", "")
		return
	}

	log.Info().
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Msg("Extracting statement")

	result, err := h.pipeline.Process(ctx, data)
	if err != nil {
		status := statusFor(err)
		log.Error().Err(err).Int("status", status).Msg("Extraction failed")
		writeError(w, status, http.StatusText(status), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch domain.TypeOf(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeConversion:
		return http.StatusUnprocessableEntity
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrRetriesExhausted),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrSchemaMismatch):
		return http.StatusBadGateway
	}

	var de *domain.DomainError
	for e := err; errors.As(e, &de); e = de.Err {
		if de.Type == domain.ErrorTypeAPI {
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
