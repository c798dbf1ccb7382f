package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/testutil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(testutil.Logger()) })
	return db
}

func TestExtractionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), testutil.Logger())

	started, err := repo.Start(ctx, "design.pdf", "DocumentExtraction")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusRunning, started.Status)

	got, err := repo.Get(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, "design.pdf", got.Filename)
	assert.Equal(t, constants.StatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)
	assert.True(t, started.StartedAt.Equal(got.StartedAt))

	result := json.RawMessage(`{"introduction":"hi"}`)
	require.NoError(t, repo.FinishSuccess(ctx, started.ID, 3, 120, result, "gpt-4o-mini"))

	got, err = repo.Get(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSucceeded, got.Status)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 120, got.TextLen)
	assert.JSONEq(t, string(result), string(got.Result))
	require.NotNil(t, got.ModelName)
	assert.Equal(t, "gpt-4o-mini", *got.ModelName)
	require.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorKind)
}

func TestExtractionRepository_FinishFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), testutil.Logger())

	started, err := repo.Start(ctx, "scan.pdf", "DocumentExtraction")
	require.NoError(t, err)
	require.NoError(t, repo.FinishFailure(ctx, started.ID, 1, 0, "provider_http", "status 500"))

	got, err := repo.Get(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, got.Status)
	require.NotNil(t, got.ErrorKind)
	assert.Equal(t, "provider_http", *got.ErrorKind)
	assert.Equal(t, "status 500", *got.ErrorMessage)
	assert.Nil(t, got.Result)
	assert.Nil(t, got.ModelName)
}

func TestExtractionRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), testutil.Logger())

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.FinishSuccess(ctx, uuid.New(), 1, 1, json.RawMessage(`{}`), "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.FinishFailure(ctx, uuid.New(), 1, 1, "decode", "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExtractionRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionRepository(openTestDB(t), testutil.Logger())

	var ids []uuid.UUID
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		task := "DocumentExtraction"
		if i == 2 {
			task = "InvoiceExtraction"
		}
		e, err := repo.Start(ctx, name, task)
		require.NoError(t, err)
		ids = append(ids, e.ID)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, repo.FinishSuccess(ctx, ids[0], 1, 1, json.RawMessage(`{}`), "m"))
	require.NoError(t, repo.FinishFailure(ctx, ids[1], 1, 1, "decode", "bad"))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.pdf", all[0].Filename, "newest first")
	assert.Equal(t, "a.pdf", all[2].Filename)

	failed, err := repo.List(ctx, ListFilter{Status: constants.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, ids[1], failed[0].ID)

	invoices, err := repo.List(ctx, ListFilter{Task: "InvoiceExtraction"})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "c.pdf", invoices[0].Filename)

	page, err := repo.List(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b.pdf", page[0].Filename)

	running, err := repo.List(ctx, ListFilter{Status: constants.StatusRunning, Task: "InvoiceExtraction"})
	require.NoError(t, err)
	assert.Len(t, running, 1)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, testutil.Logger())
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), time.Second))
	assert.Equal(t, DriverSQLite, db.Driver())
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "WHERE x = ?", lite.rebind("WHERE x = ?"))
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	var repo ExtractionRepository = Discard{}

	e, err := repo.Start(ctx, "a.pdf", "T")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.NoError(t, repo.FinishSuccess(ctx, e.ID, 1, 1, nil, ""))

	_, err = repo.Get(ctx, e.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
