package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONOutputIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelDebug,
		JSONFormat: true,
		Output:     &buf,
	})

	log.Info("resolved meeting", F("meeting_id", "mtg-1"), F("reports", 2))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "resolved meeting", entry["message"])
	assert.Equal(t, "mtg-1", entry["meeting_id"])
	assert.Equal(t, float64(2), entry["reports"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelWarn,
		JSONFormat: true,
		Output:     &buf,
	})

	log.Debug("too quiet")
	log.Info("still too quiet")
	log.Warn("loud enough")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "loud enough")
}

func TestWith_AttachesFieldsToAllEntries(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: LevelInfo, JSONFormat: true, Output: &buf})

	channelLog := log.With(F("channel", "calendar"))
	channelLog.Info("page fetched")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "calendar", entry["channel"])
}

func TestWithContext_ExtractsRunID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: LevelInfo, JSONFormat: true, Output: &buf})

	ctx := context.WithValue(context.Background(), RunIDKey, "run-42")
	log.WithContext(ctx).Info("starting run")

	assert.Contains(t, buf.String(), "run-42")
}

// recordingSink captures entries synchronously for assertions.
type recordingSink struct {
	entries []LogEntry
}

func (r *recordingSink) Write(entry LogEntry)          { r.entries = append(r.entries, entry) }
func (r *recordingSink) Flush(_ context.Context) error { return nil }
func (r *recordingSink) Close() error                  { return nil }

func TestLogger_ForwardsEntriesToSinks(t *testing.T) {
	sink := &recordingSink{}
	log := NewLogger(&Config{
		Level:      LevelInfo,
		JSONFormat: true,
		Output:     &bytes.Buffer{},
		Sinks:      []Sink{sink},
	})

	log.Warn("report expansion failed", F("report_id", "r-9"))

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "warn", sink.entries[0].Level)
	assert.Equal(t, "report expansion failed", sink.entries[0].Message)
	assert.Equal(t, "r-9", sink.entries[0].Fields["report_id"])
}
