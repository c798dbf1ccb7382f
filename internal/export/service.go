package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/internal/repository"
)

// Service produces XLSX bytes from the extraction history.
type Service struct {
	repo   repository.ExtractionRepository
	logger *slog.Logger
}

func NewService(repo repository.ExtractionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

var baseHeaders = []string{
	"ID",
	"Started At",
	"Filename",
	"Task",
	"Status",
	"Pages",
	"Error Kind",
	"Error Message",
}

// ExportXLSX writes one row per extraction matching f. Result fields are flattened
// into trailing columns, one per distinct key, in first-seen order.
func (s *Service) ExportXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	start := time.Now()

	recs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}

	results := make([]map[string]any, len(recs))
	var fieldCols []string
	seen := map[string]bool{}
	for i, r := range recs {
		results[i] = decodeResult(r.Result)
		for _, k := range resultKeys(r.Result, results[i]) {
			if !seen[k] {
				seen[k] = true
				fieldCols = append(fieldCols, k)
			}
		}
	}

	xf := excelize.NewFile()
	defer func() { _ = xf.Close() }()
	const sheet = "Extractions"
	if _, err := xf.NewSheet(sheet); err != nil {
		return nil, err
	}
	idx, _ := xf.GetSheetIndex(sheet)
	xf.SetActiveSheet(idx)
	_ = xf.DeleteSheet("Sheet1")

	headers := append(append([]string{}, baseHeaders...), fieldCols...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = xf.SetCellValue(sheet, cell, h)
	}

	for n, r := range recs {
		row := n + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = xf.SetCellValue(sheet, cell, v)
		}
		write(1, r.ID.String())
		write(2, r.StartedAt.Format(time.RFC3339))
		write(3, r.Filename)
		write(4, r.Task)
		write(5, string(r.Status))
		write(6, r.Pages)
		write(7, deref(r.ErrorKind))
		write(8, truncate(deref(r.ErrorMessage), 240))
		for j, k := range fieldCols {
			write(len(baseHeaders)+j+1, cellValue(results[n][k]))
		}
	}

	_ = xf.SetColWidth(sheet, "A", "A", 38)
	_ = xf.SetColWidth(sheet, "B", "B", 22)
	_ = xf.SetColWidth(sheet, "C", "C", 32)
	_ = xf.SetColWidth(sheet, "H", "H", 48)

	buf, err := xf.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"field_columns", len(fieldCols),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func decodeResult(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// resultKeys keeps the stored key order; json.Unmarshal into a map does not.
func resultKeys(raw json.RawMessage, m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return sortedKeys(m)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return sortedKeys(m)
		}
		k, _ := tok.(string)
		keys = append(keys, k)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return sortedKeys(m)
		}
	}
	return keys
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		b, _ := json.Marshal(t)
		return string(b)
	case map[string]any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return t
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
