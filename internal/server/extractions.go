package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

type listResponse struct {
	Extractions []*entity.Extraction `json:"extractions"`
}

func (s *Server) listExtractions(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		status, detail := appFailure(err)
		writeDetail(w, status, detail)
		return
	}
	recs, err := s.repo.List(r.Context(), f)
	if err != nil {
		status, detail := appFailure(err)
		writeDetail(w, status, detail)
		return
	}
	if recs == nil {
		recs = []*entity.Extraction{}
	}
	writeJSON(w, http.StatusOK, listResponse{Extractions: recs})
}

func (s *Server) getExtraction(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	v := common.NewValidator().Field("id", raw, common.Required, common.UUID)
	if err := v.Err(); err != nil {
		status, detail := appFailure(err)
		writeDetail(w, status, detail)
		return
	}
	rec, err := s.repo.Get(r.Context(), uuid.MustParse(raw))
	if err != nil {
		status, detail := appFailure(err)
		writeDetail(w, status, detail)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) exportExtractions(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		status, detail := appFailure(err)
		writeDetail(w, status, detail)
		return
	}
	if r.URL.Query().Get("limit") == "" {
		f.Limit = 10000
	}
	b, err := s.export.ExportXLSX(r.Context(), f)
	if err != nil {
		status, detail := appFailure(err)
		writeDetail(w, status, detail)
		return
	}
	name := fmt.Sprintf("extractions-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// listFilter reads status, task, limit and offset query parameters.
func listFilter(r *http.Request) (repository.ListFilter, error) {
	q := r.URL.Query()
	f := repository.ListFilter{
		Status: constants.ExtractionStatus(q.Get("status")),
		Task:   q.Get("task"),
		Limit:  50,
	}
	v := common.NewValidator()
	v.Field("status", q.Get("status"), common.OneOf(
		string(constants.StatusRunning), string(constants.StatusSucceeded), string(constants.StatusFailed),
	))
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.Field("limit", raw, common.IntRange(1, 10000))
		} else {
			v.Field("limit", n, common.IntRange(1, 10000))
			f.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.Field("offset", raw, common.IntRange(0, 1<<30))
		} else {
			v.Field("offset", n, common.IntRange(0, 1<<30))
			f.Offset = n
		}
	}
	return f, v.Err()
}
