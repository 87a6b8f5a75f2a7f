package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn, AddCaller: false})

	log.Debug("debug message")
	log.Info("info message")
	assert.Zero(t, buf.Len(), "messages below the minimum level must be dropped")

	log.Warn("warn message")
	log.Error("error message")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "warn message", entry.Message)
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug, AddCaller: false})

	log.With(Username("maria"), UserLevel(3)).Info("stats updated", Points(10))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "maria", entry.Fields["username"])
	assert.EqualValues(t, 3, entry.Fields["level"])
	assert.EqualValues(t, 10, entry.Fields["points"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelDebug, AddCaller: false})
	child := base.With(String("component", "ledger"))

	base.Info("from base")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Nil(t, entry.Fields)

	buf.Reset()
	child.Info("from child")
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ledger", entry.Fields["component"])
}
