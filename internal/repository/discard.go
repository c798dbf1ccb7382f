package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Discard is used when history is disabled (DB_DRIVER=none). Nothing is kept.
type Discard struct{}

func (Discard) Start(_ context.Context, filename, task string) (*entity.Extraction, error) {
	return &entity.Extraction{
		ID:        uuid.New(),
		Filename:  filename,
		Task:      task,
		Status:    constants.StatusRunning,
		StartedAt: time.Now().UTC(),
	}, nil
}

func (Discard) FinishSuccess(context.Context, uuid.UUID, int, int, json.RawMessage, string) error {
	return nil
}

func (Discard) FinishFailure(context.Context, uuid.UUID, int, int, string, string) error {
	return nil
}

func (Discard) Get(context.Context, uuid.UUID) (*entity.Extraction, error) {
	return nil, common.ErrNotFound
}

func (Discard) List(context.Context, ListFilter) ([]*entity.Extraction, error) {
	return nil, nil
}
