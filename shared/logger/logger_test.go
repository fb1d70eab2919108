package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_FallsBackOnInvalidLevel(t *testing.T) {
	log, err := New(Config{Level: "verbose", Encoding: "xml"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_DebugLevel(t *testing.T) {
	log, err := New(Config{Level: "DEBUG", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestWithAccount(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	WithAccount(zap.New(core), "acc-1", "job-1").Info("hello")
	WithAccount(zap.New(core), "acc-2", "").Info("bye")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "acc-1", entries[0].ContextMap()["account_id"])
	assert.Equal(t, "job-1", entries[0].ContextMap()["job_id"])
	_, hasJob := entries[1].ContextMap()["job_id"]
	assert.False(t, hasJob)
}

func TestNew_StampsService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	log, err := New(Config{Service: "content-worker", OutputPath: path})
	require.NoError(t, err)
	log.Info("started")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "content-worker", entry["service"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_ENCODING", "console")
	assert.Equal(t, Config{Service: "content-api", Level: "warn", Encoding: "console"}, FromEnv("content-api"))
}
