package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
)

// Extraction is one recorded extraction attempt for data transfer between layers.
type Extraction struct {
	ID           uuid.UUID                  `json:"id"`
	Filename     string                     `json:"filename"`
	Task         string                     `json:"task"`
	Status       constants.ExtractionStatus `json:"status"`
	ErrorKind    *string                    `json:"error_kind,omitempty"`
	ErrorMessage *string                    `json:"error_message,omitempty"`
	Pages        int                        `json:"pages"`
	TextLen      int                        `json:"text_len"`
	Result       json.RawMessage            `json:"result,omitempty"`
	ModelName    *string                    `json:"model_name,omitempty"`
	StartedAt    time.Time                  `json:"started_at"`
	FinishedAt   *time.Time                 `json:"finished_at,omitempty"`
}

// Duration is zero until the row is finished.
func (e *Extraction) Duration() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
