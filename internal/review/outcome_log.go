package review

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spacesedan/sentinel-review/internal/models"
)

// ErrEmptyLog reports an export attempt with nothing recorded. Callers
// surface it as an informational notice, not a failure.
var ErrEmptyLog = errors.New("no review outcomes to export")

// OutcomeLog is the append-only audit trail of per-item results. Entries
// are never mutated or removed.
type OutcomeLog struct {
	mu      sync.Mutex
	entries []models.ReviewLogEntry
}

func NewOutcomeLog() *OutcomeLog {
	return &OutcomeLog{}
}

func (l *OutcomeLog) Record(id, result string) {
	if id == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, models.ReviewLogEntry{
		ID:        id,
		Result:    result,
		Timestamp: time.Now(),
	})
}

func (l *OutcomeLog) Entries() []models.ReviewLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]models.ReviewLogEntry(nil), l.entries...)
}

func (l *OutcomeLog) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ExportCSV serializes the log. The BOM prefix lets spreadsheet tools
// detect UTF-8; timestamps are RFC 3339 instants.
func (l *OutcomeLog) ExportCSV() (string, []byte, error) {
	entries := l.Entries()
	if len(entries) == 0 {
		return "", nil, ErrEmptyLog
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	records := [][]string{{"ID", "Result", "Timestamp"}}
	for _, entry := range entries {
		records = append(records, []string{
			entry.ID,
			entry.Result,
			entry.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	if err := writer.WriteAll(records); err != nil {
		return "", nil, fmt.Errorf("failed to write review log csv: %w", err)
	}

	filename := time.Now().UTC().Format("2006-01-02") + "_review_results.csv"
	return filename, buf.Bytes(), nil
}
