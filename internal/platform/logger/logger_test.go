package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.WarnLevel, levelFromString("WARNING", false))
	assert.Equal(t, zapcore.ErrorLevel, levelFromString("error", true))
	assert.Equal(t, zapcore.DebugLevel, levelFromString("", true))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("bogus", false))
}

func TestNewWithWriter_WritesJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lg := NewWithWriter(&buf, zapcore.InfoLevel)
	lg.Debug("hidden")
	lg.Info("request completed", zap.String("request_id", "abc"), zap.Int("status", 200))
	require.NoError(t, lg.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"request completed"`)
	assert.Contains(t, out, `"request_id":"abc"`)
	assert.Contains(t, out, `"status":200`)
}

func TestInit_WithLogDir(t *testing.T) {
	dir := t.TempDir()

	lg, err := Init(Config{Level: "info", Dir: dir})
	require.NoError(t, err)
	lg.Info("to file")
	_ = lg.Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "fintrack.*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
