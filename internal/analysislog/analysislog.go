package analysislog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const filePrefix = "veridical_"

// Request outcomes recorded per entry
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Record is one analysis log entry, written as a single JSONL line.
type Record struct {
	Timestamp        time.Time `json:"timestamp"`
	RequestID        string    `json:"request_id"`
	Fingerprint      string    `json:"fingerprint"`
	Source           string    `json:"source"`
	Outcome          string    `json:"outcome"`
	IsAI             bool      `json:"is_ai"`
	Confidence       float64   `json:"confidence"`
	Verdict          string    `json:"verdict"`
	AIProbability    float64   `json:"ai_probability"`
	RealProbability  float64   `json:"real_probability"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	ModelName        string    `json:"model_name,omitempty"`
	CacheHit         bool      `json:"cache_hit"`
}

// Writer appends analysis records to daily JSONL files with a retention
// sweep on startup. Writes are best-effort: failures are logged, never
// surfaced to the request path.
type Writer struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	logger        *zap.Logger

	currentDate string
	currentFile *os.File
}

// NewWriter creates the log directory if needed and removes files older
// than retentionDays.
func NewWriter(dir string, retentionDays int, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("analysislog: creating %s: %w", dir, err)
	}

	w := &Writer{
		dir:           dir,
		retentionDays: retentionDays,
		logger:        logger,
	}
	w.cleanupOldFiles()
	return w, nil
}

// Append writes a record to the current day's file.
func (w *Writer) Append(rec Record) {
	line, err := json.Marshal(rec)
	if err != nil {
		w.logger.Warn("analysis log: marshaling record", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.file(rec.Timestamp)
	if err != nil {
		w.logger.Warn("analysis log: opening file", zap.Error(err))
		return
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		w.logger.Warn("analysis log: writing record", zap.Error(err))
	}
}

// file returns the handle for the day's log, rotating when the date
// changes. Caller holds the lock.
func (w *Writer) file(ts time.Time) (*os.File, error) {
	day := ts.UTC().Format("2006-01-02")
	if w.currentFile != nil && w.currentDate == day {
		return w.currentFile, nil
	}

	if w.currentFile != nil {
		_ = w.currentFile.Close()
	}

	path := filepath.Join(w.dir, filePrefix+day+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640) // #nosec G304
	if err != nil {
		return nil, err
	}

	w.currentDate = day
	w.currentFile = f
	return f, nil
}

// cleanupOldFiles removes daily files past the retention window.
func (w *Writer) cleanupOldFiles() {
	if w.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -w.retentionDays)

	matches, err := filepath.Glob(filepath.Join(w.dir, filePrefix+"*.jsonl"))
	if err != nil {
		return
	}

	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		dateStr := strings.TrimPrefix(name, filePrefix)

		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			if err := os.Remove(path); err == nil {
				w.logger.Info("analysis log: removed expired file", zap.String("file", filepath.Base(path)))
			}
		}
	}
}

// Recent returns up to count records, newest first.
func (w *Writer) Recent(count int) ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(w.dir, filePrefix+"*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("analysislog: listing files: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	var records []Record
	for _, path := range matches {
		if len(records) >= count {
			break
		}

		fileRecords, err := readRecords(path)
		if err != nil {
			w.logger.Warn("analysis log: reading file", zap.String("file", path), zap.Error(err))
			continue
		}

		// Newest entries are at the end of each file
		for i := len(fileRecords) - 1; i >= 0 && len(records) < count; i-- {
			records = append(records, fileRecords[i])
		}
	}

	return records, nil
}

func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// Close flushes and closes the current file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile == nil {
		return nil
	}
	err := w.currentFile.Close()
	w.currentFile = nil
	return err
}
