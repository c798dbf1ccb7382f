package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// KindInvalidPDF is recorded when the upload never reaches the provider.
const KindInvalidPDF = "invalid_pdf"

// TextExtractor turns raw document bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (pdftext.Result, error)
}

// FieldExtractor runs one provider round-trip.
type FieldExtractor interface {
	Extract(ctx context.Context, text string, s *llm.Schema, task llm.Task) (*llm.Result, error)
}

// Outcome is what a caller gets back from one document.
type Outcome struct {
	ExtractionID uuid.UUID
	Pages        int
	TextLen      int
	Result       *llm.Result
	Elapsed      time.Duration
}

// Processor coordinates text extraction, then the provider call, and records both
// in the extraction history.
type Processor struct {
	Logger *slog.Logger
	Text   TextExtractor
	Fields FieldExtractor
	Repo   repository.ExtractionRepository
	Schema *llm.Schema
	Task   llm.Task
	Model  string
}

func NewProcessor(
	logger *slog.Logger,
	text TextExtractor,
	fields FieldExtractor,
	repo repository.ExtractionRepository,
	schema *llm.Schema,
	task llm.Task,
	model string,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if repo == nil {
		repo = repository.Discard{}
	}
	return &Processor{
		Logger: logger,
		Text:   text,
		Fields: fields,
		Repo:   repo,
		Schema: schema,
		Task:   task,
		Model:  model,
	}
}

// ProcessDocument extracts fields from one PDF. History write failures are logged and
// never fail the extraction.
func (p *Processor) ProcessDocument(ctx context.Context, filename string, data []byte) (Outcome, error) {
	start := time.Now()
	var out Outcome

	rec, err := p.Repo.Start(ctx, filename, p.Task.Name)
	if err != nil {
		p.Logger.Warn("processor.history.start_failed", "filename", filename, "err", err)
	} else {
		out.ExtractionID = rec.ID
	}

	text, err := p.Text.Extract(ctx, data)
	if err != nil {
		kind := "internal"
		if IsInvalidPDF(err) {
			kind = KindInvalidPDF
		}
		p.fail(ctx, out, kind, err)
		return out, err
	}
	out.Pages = text.Pages
	out.TextLen = len(text.Text)
	p.Logger.Info("processor.text.ok",
		"extraction_id", out.ExtractionID,
		"filename", filename,
		"pages", text.Pages,
		"empty_pages", text.EmptyPages,
		"text_len", out.TextLen,
	)

	res, err := p.Fields.Extract(ctx, text.Text, p.Schema, p.Task)
	if err != nil {
		p.fail(ctx, out, llm.ErrorKind(err), err)
		return out, err
	}
	out.Result = res

	b, err := json.Marshal(res)
	if err != nil {
		err = fmt.Errorf("marshal result: %w", err)
		p.fail(ctx, out, "internal", err)
		return out, err
	}
	if out.ExtractionID != uuid.Nil {
		if err := p.Repo.FinishSuccess(ctx, out.ExtractionID, out.Pages, out.TextLen, b, p.Model); err != nil {
			p.Logger.Warn("processor.history.finish_failed", "extraction_id", out.ExtractionID, "err", err)
		}
	}

	out.Elapsed = time.Since(start)
	p.Logger.Info("processor.ok",
		"extraction_id", out.ExtractionID,
		"filename", filename,
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return out, nil
}

func (p *Processor) fail(ctx context.Context, out Outcome, kind string, cause error) {
	p.Logger.Error("processor.failed", "extraction_id", out.ExtractionID, "kind", kind, "err", cause)
	if out.ExtractionID == uuid.Nil {
		return
	}
	// The request context may already be done; the failure row still gets written.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.Repo.FinishFailure(wctx, out.ExtractionID, out.Pages, out.TextLen, kind, cause.Error()); err != nil {
		p.Logger.Warn("processor.history.finish_failed", "extraction_id", out.ExtractionID, "err", err)
	}
}

// IsInvalidPDF reports whether err came from the text stage rejecting the bytes.
func IsInvalidPDF(err error) bool {
	return errors.Is(err, pdftext.ErrInvalidPDF)
}
