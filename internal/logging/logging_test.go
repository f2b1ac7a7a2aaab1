package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gotest.tools/v3/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, ParseLevel("debug"), slog.LevelDebug)
	assert.Equal(t, ParseLevel("WARN"), slog.LevelWarn)
	assert.Equal(t, ParseLevel("nonsense"), slog.LevelInfo)
}

func TestSetupLoggerWithoutSeq(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger, closeFn := SetupLogger(Options{Level: slog.LevelWarn})
	defer closeFn()

	assert.Assert(t, logger != nil)
	assert.Assert(t, !logger.Enabled(context.Background(), slog.LevelInfo))
	assert.Assert(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestAuditLoggerWritesJSONRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	audit := NewAuditLogger(path)

	audit.Info("Warning: Table temp_one not found.",
		zap.String("run_id", "r-1"),
		zap.Int("step", 4),
	)
	assert.NilError(t, audit.Sync())

	raw, err := os.ReadFile(path)
	assert.NilError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, len(lines), 1)

	var record map[string]interface{}
	assert.NilError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, record["msg"], "Warning: Table temp_one not found.")
	assert.Equal(t, record["run_id"], "r-1")
	assert.Equal(t, record["step"], float64(4))
}

func TestAuditLoggerNop(t *testing.T) {
	audit := NewAuditLogger("")
	audit.Info("discarded")
	assert.NilError(t, audit.Sync())
}
