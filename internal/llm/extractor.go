package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Extractor runs one extraction round-trip per call. It holds no per-call state and is
// safe for concurrent use; retries are left to the caller.
type Extractor struct {
	provider Provider
	logger   *slog.Logger
	mode     Mode
}

type Option func(*Extractor)

// WithMode switches between tool-call (default) and prompt extraction.
func WithMode(m Mode) Option {
	return func(e *Extractor) {
		e.mode = m
	}
}

func NewExtractor(p Provider, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{provider: p, logger: logger, mode: ModeTool}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) Mode() Mode { return e.mode }

// Extract sends the document text verbatim (no truncation or chunking) with the
// translated schema and decodes the answer. Empty text is not rejected here; the
// provider decides.
func (e *Extractor) Extract(ctx context.Context, text string, s *Schema, task Task) (*Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	e.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", e.provider.Name(),
		"mode", e.mode.String(),
		"task", task.Name,
		"fields", s.Len(),
		"text_len", len(text),
	)

	req := e.buildRequest(text, s, task)
	args, err := e.provider.Send(ctx, req)
	if err != nil {
		e.logger.Error("llm.extract.provider_error",
			"req_id", rid, "error", err, "kind", ErrorKind(err),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	res, err := Decode(args, s)
	if err != nil {
		e.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "arguments_len", len(args),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	e.logger.Info("llm.extract.ok",
		"req_id", rid,
		"task", task.Name,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) buildRequest(text string, s *Schema, task Task) Request {
	if e.mode == ModePrompt {
		outline, notes := TranslateWithNotes(s)
		return Request{System: SystemPrompt, User: BuildLegacyPrompt(text, outline, notes)}
	}
	tool := Translate(s, task)
	return Request{System: SystemPrompt, User: text, Tool: &tool}
}

// ErrorKind names the taxonomy kind of err for logs and records; "" for nil.
func ErrorKind(err error) string {
	var (
		cfgErr   *ConfigurationError
		httpErr  *ProviderHTTPError
		tErr     *TransportError
		noTool   *NoToolCallError
		decodeEr *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &httpErr):
		return "provider_http"
	case errors.As(err, &tErr):
		return "transport"
	case errors.As(err, &noTool):
		return "no_tool_call"
	case errors.As(err, &decodeEr):
		return "decode"
	default:
		return "internal"
	}
}
