package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrInvalidPDF is returned when the bytes cannot be read as a PDF at all.
var ErrInvalidPDF = errors.New("file is not a valid PDF or is corrupted")

type Config struct {
	MaxPages  int  // 0 = no limit
	Normalize bool // collapse whitespace noise in the joined text
}

type Result struct {
	Text       string
	Pages      int
	EmptyPages int
	Duration   time.Duration
	Warnings   []string
}

// Extractor reads the embedded text layer of a PDF. Scanned (image-only) pages yield
// empty text; they are counted, not treated as errors.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

var disableConfigDir sync.Once

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	disableConfigDir.Do(api.DisableConfigDir)
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract validates data with pdfcpu and then concatenates per-page plain text.
func (e *Extractor) Extract(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty file", ErrInvalidPDF)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		e.logger.Warn("pdftext.validate_failed", "error", err, "bytes", len(data))
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Warn("pdftext.open_failed", "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	numPages := r.NumPage()
	if e.cfg.MaxPages > 0 && numPages > e.cfg.MaxPages {
		numPages = e.cfg.MaxPages
	}

	res := Result{Pages: numPages}
	fonts := make(map[string]*pdf.Font)
	parts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		text, err := pageText(r, i, fonts)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, err))
		}
		if strings.TrimSpace(text) == "" {
			res.EmptyPages++
			continue
		}
		parts = append(parts, text)
	}

	res.Text = strings.Join(parts, "\n\n")
	if e.cfg.Normalize {
		res.Text = Normalize(res.Text)
	}
	res.Duration = time.Since(start)

	e.logger.Debug("pdftext.extract.ok",
		"pages", res.Pages,
		"empty_pages", res.EmptyPages,
		"text_len", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// pageText returns "" for pages whose content stream cannot be decoded. The pdf
// package panics on some malformed streams, so the page read is fenced with recover.
func pageText(r *pdf.Reader, n int, fonts map[string]*pdf.Font) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read page: %v", rec)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; !ok {
			f := p.Font(name)
			fonts[name] = &f
		}
	}
	return p.GetPlainText(fonts)
}
