package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

type parseResponse struct {
	ParsedData *llm.Result `json:"parsed_data"`
}

// parseDoc handles POST /parse_doc with a multipart "file" part.
func (s *Server) parseDoc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.LoggerFromContext(ctx, s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB upload limit.", s.cfg.MaxUploadBytes>>20))
			return
		}
		logger.Warn("http.parse_doc.bad_form", "error", err)
		writeDetail(w, http.StatusBadRequest, detailMalformed)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil || hdr.Filename == "" {
		writeDetail(w, http.StatusBadRequest, detailMalformed)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".pdf") {
		writeDetail(w, http.StatusBadRequest, detailNotPDF)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, detailMalformed)
		return
	}

	out, err := s.proc.ProcessDocument(ctx, hdr.Filename, data)
	if out.ExtractionID != uuid.Nil {
		w.Header().Set("X-Extraction-ID", out.ExtractionID.String())
	}
	if err != nil {
		status, detail := extractionFailure(err)
		logger.Warn("http.parse_doc.failed",
			"filename", hdr.Filename, "status", status, "kind", llm.ErrorKind(err), "error", err,
		)
		writeDetail(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, parseResponse{ParsedData: out.Result})
}
