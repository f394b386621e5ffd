package analysislog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRecord(requestID string, ts time.Time) Record {
	return Record{
		Timestamp:        ts,
		RequestID:        requestID,
		Fingerprint:      "00000000000000ff",
		Source:           "https://example.com/page",
		Outcome:          OutcomeCompleted,
		IsAI:             true,
		Confidence:       0.87,
		Verdict:          "Likely AI",
		AIProbability:    0.87,
		RealProbability:  0.13,
		ProcessingTimeMs: 42.5,
		ModelName:        "test-model",
		CacheHit:         false,
	}
}

func TestWriter_AppendAndRecent(t *testing.T) {
	t.Run("round trips records", func(t *testing.T) {
		dir := t.TempDir()
		w, err := NewWriter(dir, 30, zap.NewNop())
		require.NoError(t, err)
		defer func() { _ = w.Close() }()

		now := time.Now().UTC()
		w.Append(testRecord("req-1", now))
		w.Append(testRecord("req-2", now.Add(time.Second)))

		records, err := w.Recent(10)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// Newest first
		assert.Equal(t, "req-2", records[0].RequestID)
		assert.Equal(t, "req-1", records[1].RequestID)
		assert.Equal(t, "Likely AI", records[1].Verdict)
		assert.Equal(t, 0.87, records[1].Confidence)
	})

	t.Run("respects the count limit", func(t *testing.T) {
		dir := t.TempDir()
		w, err := NewWriter(dir, 30, zap.NewNop())
		require.NoError(t, err)
		defer func() { _ = w.Close() }()

		now := time.Now().UTC()
		for i := 0; i < 5; i++ {
			w.Append(testRecord("req", now))
		}

		records, err := w.Recent(3)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("empty log yields no records", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), 30, zap.NewNop())
		require.NoError(t, err)
		defer func() { _ = w.Close() }()

		records, err := w.Recent(10)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestWriter_DailyFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 30, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	now := time.Now().UTC()
	w.Append(testRecord("req-1", now))

	expected := filepath.Join(dir, filePrefix+now.Format("2006-01-02")+".jsonl")
	_, statErr := os.Stat(expected)
	assert.NoError(t, statErr, "record should land in the current day's file")
}

func TestWriter_Retention(t *testing.T) {
	t.Run("removes files past the retention window", func(t *testing.T) {
		dir := t.TempDir()

		oldDay := time.Now().UTC().AddDate(0, 0, -40).Format("2006-01-02")
		oldPath := filepath.Join(dir, filePrefix+oldDay+".jsonl")
		require.NoError(t, os.WriteFile(oldPath, []byte("{}\n"), 0640))

		freshDay := time.Now().UTC().Format("2006-01-02")
		freshPath := filepath.Join(dir, filePrefix+freshDay+".jsonl")
		require.NoError(t, os.WriteFile(freshPath, []byte("{}\n"), 0640))

		w, err := NewWriter(dir, 30, zap.NewNop())
		require.NoError(t, err)
		defer func() { _ = w.Close() }()

		_, oldErr := os.Stat(oldPath)
		assert.True(t, os.IsNotExist(oldErr), "expired file should be removed")
		_, freshErr := os.Stat(freshPath)
		assert.NoError(t, freshErr, "fresh file should survive")
	})

	t.Run("ignores files with unparseable names", func(t *testing.T) {
		dir := t.TempDir()
		odd := filepath.Join(dir, filePrefix+"not-a-date.jsonl")
		require.NoError(t, os.WriteFile(odd, []byte("{}\n"), 0640))

		_, err := NewWriter(dir, 30, zap.NewNop())
		require.NoError(t, err)

		_, statErr := os.Stat(odd)
		assert.NoError(t, statErr)
	})

	t.Run("zero retention disables the sweep", func(t *testing.T) {
		dir := t.TempDir()
		oldDay := time.Now().UTC().AddDate(0, 0, -400).Format("2006-01-02")
		oldPath := filepath.Join(dir, filePrefix+oldDay+".jsonl")
		require.NoError(t, os.WriteFile(oldPath, []byte("{}\n"), 0640))

		_, err := NewWriter(dir, 0, zap.NewNop())
		require.NoError(t, err)

		_, statErr := os.Stat(oldPath)
		assert.NoError(t, statErr)
	})
}
