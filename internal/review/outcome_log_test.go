package review

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeLogExportEmpty(t *testing.T) {
	log := NewOutcomeLog()

	_, _, err := log.ExportCSV()
	require.ErrorIs(t, err, ErrEmptyLog)
}

func TestOutcomeLogRecordIgnoresEmptyID(t *testing.T) {
	log := NewOutcomeLog()
	log.Record("", "orphan result")

	assert.Equal(t, 0, log.Size())
}

func TestOutcomeLogExportRoundTrip(t *testing.T) {
	log := NewOutcomeLog()
	log.Record("item-1", "Safe")
	log.Record("item-2", `said "hello"`)
	log.Record("item-3", "Error: timeout, retry later")

	filename, data, err := log.ExportCSV()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(filename, "_review_results.csv"))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}_`, filename)

	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "export must carry a UTF-8 BOM")

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"ID", "Result", "Timestamp"}, records[0])

	entries := log.Entries()
	for i, record := range records[1:] {
		assert.Equal(t, entries[i].ID, record[0])
		assert.Equal(t, entries[i].Result, record[1])

		parsed, err := time.Parse(time.RFC3339, record[2])
		require.NoError(t, err)
		assert.WithinDuration(t, entries[i].Timestamp, parsed, time.Second)
	}
}

func TestOutcomeLogAppendOnly(t *testing.T) {
	log := NewOutcomeLog()
	log.Record("a", "first")
	log.Record("a", "second")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Result)
	assert.Equal(t, "second", entries[1].Result)

	// Mutating the returned slice must not reach the log.
	entries[0].Result = "tampered"
	assert.Equal(t, "first", log.Entries()[0].Result)
}
