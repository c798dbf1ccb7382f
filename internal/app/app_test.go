package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/tasks"
	"github.com/joseph-ayodele/docextract/internal/testutil"
)

func baseConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.Provider = "http"
	cfg.Database.Driver = "none"
	cfg.Extract.Mode = "tool"
	cfg.Extract.SchemaFile = ""
	return cfg
}

func TestNew_DefaultsToDocumentTask(t *testing.T) {
	a, err := New(context.Background(), baseConfig(), testutil.Logger())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.IsType(t, repository.Discard{}, a.Repo)
	assert.Same(t, tasks.DocumentSchema, a.Schema)
	assert.Equal(t, "openai", a.Provider.Name())
}

func TestNew_SQLiteHistoryAndSDKProvider(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.LLM.Provider = "sdk"

	a, err := New(context.Background(), cfg, testutil.Logger())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.DB)
	assert.Equal(t, "openai-sdk", a.Provider.Name())
}

func TestNew_MissingAPIKey(t *testing.T) {
	cfg := baseConfig()
	cfg.LLM.APIKey = ""

	_, err := New(context.Background(), cfg, testutil.Logger())
	var ce *llm.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadSchema_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Invoice\nfields:\n  - name: total\n    type: float\n"), 0o600))

	cfg := baseConfig()
	cfg.Extract.SchemaFile = path
	s, task, err := LoadSchema(cfg, testutil.Logger())
	require.NoError(t, err)
	assert.Equal(t, "Invoice", task.Name)
	assert.Equal(t, []string{"total"}, s.Names())

	cfg.Extract.SchemaFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = LoadSchema(cfg, testutil.Logger())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeConfig, appErr.Code)
}

func TestNewLogger(t *testing.T) {
	assert.True(t, NewLogger("debug").Enabled(context.Background(), -4))
	assert.False(t, NewLogger("warn").Enabled(context.Background(), 0))
}
