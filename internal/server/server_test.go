package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/testutil"
)

type fakeProcessor struct {
	out      pipeline.Outcome
	err      error
	filename string
	data     []byte
}

func (f *fakeProcessor) ProcessDocument(_ context.Context, filename string, data []byte) (pipeline.Outcome, error) {
	f.filename = filename
	f.data = data
	return f.out, f.err
}

type fakeRepo struct {
	repository.Discard
	recs   []*entity.Extraction
	filter repository.ListFilter
}

func (f *fakeRepo) List(_ context.Context, flt repository.ListFilter) ([]*entity.Extraction, error) {
	f.filter = flt
	return f.recs, nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*entity.Extraction, error) {
	for _, r := range f.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return f.Discard.Get(context.Background(), id)
}

type fakePinger struct{ err error }

func (p fakePinger) HealthCheck(context.Context, time.Duration) error { return p.err }

func newTestServer(proc DocumentProcessor, repo repository.ExtractionRepository, db Pinger) http.Handler {
	return New(Config{MaxUploadBytes: 1 << 20}, proc, repo, nil, db, testutil.Logger()).Router()
}

func upload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/parse_doc", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var d detailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d.Detail
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	rec := serve(newTestServer(&fakeProcessor{}, nil, nil), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello World!"}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestServer(&fakeProcessor{}, nil, nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"disabled"}`, rec.Body.String())

	rec = serve(newTestServer(&fakeProcessor{}, nil, fakePinger{err: errors.New("down")}),
		httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParseDoc_Success(t *testing.T) {
	schema := llm.MustSchema(
		llm.StringField("introduction", ""),
		llm.EnumListField("communication_protocols", "", "gRPC", "https", "REST/JSON"),
	)
	res, err := llm.Decode(`{"introduction":"Intro","communication_protocols":["gRPC","REST/JSON"]}`, schema)
	require.NoError(t, err)

	id := uuid.New()
	proc := &fakeProcessor{out: pipeline.Outcome{ExtractionID: id, Result: res}}
	pdf := testutil.PDF("hello")

	rec := serve(newTestServer(proc, nil, nil), upload(t, "file", "design.pdf", pdf))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t,
		`{"parsed_data":{"introduction":"Intro","communication_protocols":["gRPC","REST/JSON"]}}`+"\n",
		rec.Body.String())
	assert.Equal(t, id.String(), rec.Header().Get("X-Extraction-ID"))
	assert.Equal(t, "design.pdf", proc.filename)
	assert.Equal(t, pdf, proc.data)
}

func TestParseDoc_RejectedUploads(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		detail string
	}{
		{
			name:   "no file part",
			req:    func(t *testing.T) *http.Request { return upload(t, "", "", nil) },
			status: http.StatusBadRequest,
			detail: detailMalformed,
		},
		{
			name:   "wrong field name",
			req:    func(t *testing.T) *http.Request { return upload(t, "document", "a.pdf", []byte("x")) },
			status: http.StatusBadRequest,
			detail: detailMalformed,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/parse_doc", bytes.NewBufferString("{}"))
			},
			status: http.StatusBadRequest,
			detail: detailMalformed,
		},
		{
			name:   "not a pdf name",
			req:    func(t *testing.T) *http.Request { return upload(t, "file", "notes.txt", []byte("x")) },
			status: http.StatusBadRequest,
			detail: detailNotPDF,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return upload(t, "file", "big.pdf", bytes.Repeat([]byte("a"), 2<<20))
			},
			status: http.StatusRequestEntityTooLarge,
			detail: "File exceeds the 1 MB upload limit.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{}
			rec := serve(newTestServer(proc, nil, nil), tt.req(t))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, rec))
			assert.Empty(t, proc.filename, "processor not called")
		})
	}
}

func TestParseDoc_ExtractionFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "invalid pdf",
			err:    pdftext.ErrInvalidPDF,
			status: http.StatusBadRequest,
			detail: detailInvalidPDF,
		},
		{
			name:   "provider status passes through",
			err:    &llm.ProviderHTTPError{StatusCode: 500, Body: `{"error":"rate_limited"}`},
			status: http.StatusInternalServerError,
			detail: `LLM service returned an error: {"error":"rate_limited"}`,
		},
		{
			name:   "provider 429",
			err:    &llm.ProviderHTTPError{StatusCode: 429, Body: "slow down"},
			status: http.StatusTooManyRequests,
			detail: "LLM service returned an error: slow down",
		},
		{
			name:   "unreachable",
			err:    &llm.TransportError{Err: errors.New("connection refused")},
			status: http.StatusServiceUnavailable,
			detail: "Could not connect to LLM service: connection refused",
		},
		{
			name:   "decode",
			err:    &llm.DecodeError{Cause: errors.New("missing field")},
			status: http.StatusInternalServerError,
			detail: "An unexpected error occurred: decode tool arguments: missing field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{err: tt.err}
			rec := serve(newTestServer(proc, nil, nil), upload(t, "file", "a.pdf", []byte("%PDF")))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, rec))
		})
	}
}

func TestExtractionsEndpoints(t *testing.T) {
	msg := "no tool call"
	kind := "no_tool_call"
	rec1 := &entity.Extraction{
		ID: uuid.New(), Filename: "a.pdf", Task: "DocumentExtraction",
		Status: constants.StatusFailed, ErrorKind: &kind, ErrorMessage: &msg,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	repo := &fakeRepo{recs: []*entity.Extraction{rec1}}
	h := newTestServer(&fakeProcessor{}, repo, nil)

	t.Run("list", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/extractions?status=FAILED&limit=5&offset=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Extractions, 1)
		assert.Equal(t, rec1.ID, body.Extractions[0].ID)
		assert.Equal(t, repository.ListFilter{Status: constants.StatusFailed, Limit: 5, Offset: 2}, repo.filter)
	})

	t.Run("list bad params", func(t *testing.T) {
		for _, q := range []string{"status=DONE", "limit=0", "limit=abc", "offset=-1"} {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/extractions?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/extractions/"+rec1.ID.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var got entity.Extraction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "a.pdf", got.Filename)
		assert.Equal(t, "no_tool_call", *got.ErrorKind)
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/extractions/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get bad id", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/extractions/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/extractions/export", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
		assert.Equal(t, 10000, repo.filter.Limit)
		b, _ := io.ReadAll(rec.Body)
		assert.Equal(t, []byte("PK"), b[:2])
	})
}
