package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestSetOutputJSONWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelDebug, "json")
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, LevelInfo, "text") })

	ctx := IntoContext(context.Background(), "request_id", "r-1")
	WithContext(ctx).Info("hello", "n", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.EqualValues(t, 3, entry["n"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelWarn, "text")
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, LevelInfo, "text") })

	Debug("hidden")
	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitWithConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, InitWithConfig(Config{Level: LevelInfo, OutputPath: path, Format: "json"}))
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, LevelInfo, "text") })
	Info("to file")
	assert.FileExists(t, path)
}

func TestWithComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelInfo, "json")
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, LevelInfo, "text") })

	WithComponent("dispatcher").Info("tagged")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatcher", entry["component"])
}
