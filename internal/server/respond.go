package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

const (
	detailMalformed  = "Malformed file uploaded."
	detailNotPDF     = "Only PDF files accepted for now!"
	detailInvalidPDF = "File is not a valid PDF or is corrupted."
)

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// extractionFailure maps a processing error to the status and detail sent to clients.
// Provider statuses pass through unchanged.
func extractionFailure(err error) (int, string) {
	var (
		httpErr *llm.ProviderHTTPError
		tErr    *llm.TransportError
	)
	switch {
	case pipeline.IsInvalidPDF(err):
		return http.StatusBadRequest, detailInvalidPDF
	case errors.As(err, &httpErr):
		status := httpErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, "LLM service returned an error: " + httpErr.Body
	case errors.As(err, &tErr):
		return http.StatusServiceUnavailable, fmt.Sprintf("Could not connect to LLM service: %v", tErr.Err)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}

// appFailure maps history/validation errors.
func appFailure(err error) (int, string) {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return common.HTTPStatus(appErr.Code), appErr.Message
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "Extraction not found."
	default:
		return http.StatusInternalServerError, fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
