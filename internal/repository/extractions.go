package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

type ListFilter struct {
	Status constants.ExtractionStatus
	Task   string
	Limit  int
	Offset int
}

type ExtractionRepository interface {
	Start(ctx context.Context, filename, task string) (*entity.Extraction, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, pages, textLen int, result json.RawMessage, model string) error
	FinishFailure(ctx context.Context, id uuid.UUID, pages, textLen int, kind, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Extraction, error)
	List(ctx context.Context, f ListFilter) ([]*entity.Extraction, error)
}

type extractionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionRepository(db *DB, log *slog.Logger) ExtractionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionRepo{db: db, log: log}
}

func (r *extractionRepo) Start(ctx context.Context, filename, task string) (*entity.Extraction, error) {
	e := &entity.Extraction{
		ID:        uuid.New(),
		Filename:  filename,
		Task:      task,
		Status:    constants.StatusRunning,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extractions (id, filename, task, status, started_at) VALUES (?, ?, ?, ?, ?)`),
		e.ID.String(), e.Filename, e.Task, string(e.Status), e.StartedAt.UnixMilli(),
	)
	if err != nil {
		r.log.Error("extraction start failed", "filename", filename, "err", err)
		return nil, fmt.Errorf("%w: insert extraction: %v", common.ErrDatabase, err)
	}
	r.log.Info("extraction started", "extraction_id", e.ID, "filename", filename, "task", task)
	return e, nil
}

func (r *extractionRepo) FinishSuccess(ctx context.Context, id uuid.UUID, pages, textLen int, result json.RawMessage, model string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE extractions SET status = ?, pages = ?, text_len = ?, result = ?, model_name = ?, finished_at = ? WHERE id = ?`),
		string(constants.StatusSucceeded), pages, textLen, string(result), nullString(model),
		time.Now().UTC().UnixMilli(), id.String(),
	)
	if err := checkUpdated(res, err); err != nil {
		r.log.Error("extraction finish(OK) failed", "extraction_id", id, "err", err)
		return err
	}
	r.log.Info("extraction finished (SUCCEEDED)", "extraction_id", id, "pages", pages)
	return nil
}

func (r *extractionRepo) FinishFailure(ctx context.Context, id uuid.UUID, pages, textLen int, kind, message string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE extractions SET status = ?, pages = ?, text_len = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(constants.StatusFailed), pages, textLen, kind, message,
		time.Now().UTC().UnixMilli(), id.String(),
	)
	if err := checkUpdated(res, err); err != nil {
		r.log.Error("extraction finish(FAILED) failed", "extraction_id", id, "err", err)
		return err
	}
	r.log.Warn("extraction finished (FAILED)", "extraction_id", id, "kind", kind, "error", message)
	return nil
}

const selectColumns = `SELECT id, filename, task, status, error_kind, error_message, pages, text_len, result, model_name, started_at, finished_at FROM extractions`

func (r *extractionRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Extraction, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(selectColumns+` WHERE id = ?`), id.String())
	e, err := scanExtraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get extraction: %v", common.ErrDatabase, err)
	}
	return e, nil
}

// List returns newest first. Limit defaults to 50.
func (r *extractionRepo) List(ctx context.Context, f ListFilter) ([]*entity.Extraction, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Task != "" {
		where = append(where, "task = ?")
		args = append(args, f.Task)
	}
	q := selectColumns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += " ORDER BY started_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, max(f.Offset, 0))

	rows, err := r.db.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list extractions: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan extraction: %v", common.ErrDatabase, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list extractions: %v", common.ErrDatabase, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExtraction(s scanner) (*entity.Extraction, error) {
	var (
		id, status                     string
		e                              entity.Extraction
		errKind, errMsg, result, model sql.NullString
		startedAt                      int64
		finishedAt                     sql.NullInt64
	)
	if err := s.Scan(&id, &e.Filename, &e.Task, &status, &errKind, &errMsg,
		&e.Pages, &e.TextLen, &result, &model, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad id %q: %w", id, err)
	}
	e.ID = parsed
	e.Status = constants.ExtractionStatus(status)
	e.ErrorKind = ptrString(errKind)
	e.ErrorMessage = ptrString(errMsg)
	e.ModelName = ptrString(model)
	if result.Valid && result.String != "" {
		e.Result = json.RawMessage(result.String)
	}
	e.StartedAt = time.UnixMilli(startedAt).UTC()
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64).UTC()
		e.FinishedAt = &t
	}
	return &e, nil
}

func checkUpdated(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%w: update extraction: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update extraction: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func ptrString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
