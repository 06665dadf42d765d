package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel(DebugLevel))

	l.WithField("batch_id", "b-1").Info("executed",
		String("query_type", "exec"),
		Int("statements", 3),
		Int64("affected", 7),
		Bool("slow", false),
		Duration("duration", 2*time.Millisecond),
		Err(errors.New("boom")),
		Any("args", []int{1, 2}),
	)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "executed", entry["message"])
	assert.Equal(t, "b-1", entry["batch_id"])
	assert.Equal(t, "exec", entry["query_type"])
	assert.Equal(t, float64(3), entry["statements"])
	assert.Equal(t, float64(7), entry["affected"])
	assert.Equal(t, false, entry["slow"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, []any{float64(1), float64(2)}, entry["args"])
	assert.Contains(t, entry, "time")
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel(WarnLevel))

	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["message"])
	assert.Equal(t, "error", entries[1]["message"])

	buf.Reset()
	l.SetLevel(Disabled)
	l.Error("dropped")
	assert.Empty(t, buf.String())
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.WithFields(String("a", "b")).Error("ignored", Err(errors.New("x")))
	})
}
