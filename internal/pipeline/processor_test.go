package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/testutil"
)

type fakeFields struct {
	text string
	args string
	err  error
}

func (f *fakeFields) Extract(_ context.Context, text string, s *llm.Schema, _ llm.Task) (*llm.Result, error) {
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return llm.Decode(f.args, s)
}

var testSchema = llm.MustSchema(llm.StringField("introduction", ""))

func newProcessor(t *testing.T, fields FieldExtractor) (*Processor, repository.ExtractionRepository) {
	t.Helper()
	db, err := repository.Open(context.Background(),
		repository.Config{Driver: repository.DriverSQLite, DSN: ":memory:"}, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(testutil.Logger()) })

	repo := repository.NewExtractionRepository(db, testutil.Logger())
	text := pdftext.NewExtractor(pdftext.Config{}, testutil.Logger())
	return NewProcessor(testutil.Logger(), text, fields, repo, testSchema, llm.Task{Name: "Doc"}, "gpt-4o-mini"), repo
}

func TestProcessDocument_Success(t *testing.T) {
	fields := &fakeFields{args: `{"introduction":"Hello"}`}
	p, repo := newProcessor(t, fields)

	out, err := p.ProcessDocument(context.Background(), "a.pdf", testutil.PDF("Hello world"))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pages)
	assert.Equal(t, "Hello", out.Result.String("introduction"))
	assert.Contains(t, fields.text, "Hello world")

	rec, err := repo.Get(context.Background(), out.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSucceeded, rec.Status)
	assert.Equal(t, "Doc", rec.Task)
	assert.JSONEq(t, `{"introduction":"Hello"}`, string(rec.Result))
}

func TestProcessDocument_InvalidPDF(t *testing.T) {
	fields := &fakeFields{}
	p, repo := newProcessor(t, fields)

	out, err := p.ProcessDocument(context.Background(), "bad.pdf", []byte("not a pdf"))
	require.Error(t, err)
	assert.True(t, IsInvalidPDF(err))
	assert.Empty(t, fields.text, "provider never called")

	rec, err := repo.Get(context.Background(), out.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, rec.Status)
	assert.Equal(t, KindInvalidPDF, *rec.ErrorKind)
}

func TestProcessDocument_ProviderError(t *testing.T) {
	fields := &fakeFields{err: &llm.ProviderHTTPError{StatusCode: 500, Body: "x"}}
	p, repo := newProcessor(t, fields)

	out, err := p.ProcessDocument(context.Background(), "a.pdf", testutil.PDF("text"))
	var he *llm.ProviderHTTPError
	require.ErrorAs(t, err, &he)

	rec, err := repo.Get(context.Background(), out.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, "provider_http", *rec.ErrorKind)
	assert.Equal(t, 1, rec.Pages)
}

type brokenRepo struct{ repository.Discard }

func (brokenRepo) Start(context.Context, string, string) (*entity.Extraction, error) {
	return nil, errors.New("database down")
}

func TestProcessDocument_HistoryOutageDoesNotFail(t *testing.T) {
	fields := &fakeFields{args: `{"introduction":"Hi"}`}
	text := pdftext.NewExtractor(pdftext.Config{}, testutil.Logger())
	p := NewProcessor(testutil.Logger(), text, fields, brokenRepo{}, testSchema, llm.Task{Name: "Doc"}, "")

	out, err := p.ProcessDocument(context.Background(), "a.pdf", testutil.PDF("text"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, out.ExtractionID)
	assert.Equal(t, "Hi", out.Result.String("introduction"))
}

func TestNewProcessor_NilRepo(t *testing.T) {
	p := NewProcessor(nil, nil, nil, nil, testSchema, llm.Task{}, "")
	assert.IsType(t, repository.Discard{}, p.Repo)
	assert.NotNil(t, p.Logger)
}
