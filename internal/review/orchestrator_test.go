package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentinel-review/internal/clients"
	"github.com/spacesedan/sentinel-review/internal/models"
)

type fakeEngine struct {
	calls   int
	outputs map[string]models.EngineOutputs
	err     map[string]error
	byOrder []string
}

func (f *fakeEngine) Submit(ctx context.Context, payload models.ReviewPayload, photoFile *clients.PhotoFile) (models.EngineOutputs, error) {
	f.calls++
	f.byOrder = append(f.byOrder, payload.ID)
	if err, ok := f.err[payload.ID]; ok {
		return nil, err
	}
	if outputs, ok := f.outputs[payload.ID]; ok {
		return outputs, nil
	}
	return models.EngineOutputs{"type": "completed"}, nil
}

func reviewableOutputs(text string) models.EngineOutputs {
	return models.EngineOutputs{
		"results": map[string]any{"有害内容类型": []any{"Spam"}},
		"text":    text,
	}
}

func newTestOrchestrator(engine EngineSubmitter) (*Orchestrator, *Session, *OutcomeLog) {
	session := NewSession()
	log := NewOutcomeLog()
	return NewOrchestrator(engine, session, log, 0), session, log
}

func TestRunBatchTalliesAndLogsEveryRow(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"1": reviewableOutputs("hello"),
		},
	}
	orchestrator, session, log := newTestOrchestrator(engine)

	rows := []models.TemplateRow{
		{ID: "1", Content: "hello"},
		{ID: "2"},
	}

	results, summary := orchestrator.RunBatch(context.Background(), rows)

	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.Equal(t, len(rows), summary.SuccessCount+summary.FailureCount)

	require.Len(t, results, 2)
	assert.Equal(t, "succeeded", results[0].Status)
	assert.Equal(t, "failed", results[1].Status)
	assert.Contains(t, results[1].Error, "content or photo")

	// Exactly one log entry per row.
	assert.Equal(t, 2, log.Size())

	// Row 2 never reached the engine.
	assert.Equal(t, 1, engine.calls)

	// Row 1 landed in the session.
	_, ok := session.Item("1")
	assert.True(t, ok)
}

func TestRunBatchNeverStopsEarly(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"1": reviewableOutputs("a"),
			"3": reviewableOutputs("c"),
		},
		err: map[string]error{
			"2": &clients.EngineError{Msg: "upstream exploded"},
		},
	}
	orchestrator, _, log := newTestOrchestrator(engine)

	rows := []models.TemplateRow{
		{ID: "1", Content: "a"},
		{ID: "2", Content: "b"},
		{ID: "3", Content: "c"},
	}

	results, summary := orchestrator.RunBatch(context.Background(), rows)

	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.Equal(t, 3, engine.calls)
	assert.Equal(t, []string{"1", "2", "3"}, engine.byOrder)
	assert.Equal(t, 3, log.Size())

	require.Len(t, results, 3)
	assert.Contains(t, results[1].Error, "upstream exploded")
}

func TestRunBatchStatusSignalIsNotAnItem(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"1": {"type": "safe"},
		},
	}
	orchestrator, session, log := newTestOrchestrator(engine)

	_, summary := orchestrator.RunBatch(context.Background(), []models.TemplateRow{{ID: "1", Content: "hello"}})

	assert.Equal(t, 1, summary.SuccessCount)
	assert.Empty(t, session.Items())

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "safe", entries[0].Result)
}

func TestRunBatchUpsertDoesNotMoveFocus(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"a": reviewableOutputs("interactive"),
			"b": reviewableOutputs("from batch"),
		},
	}
	orchestrator, session, _ := newTestOrchestrator(engine)

	_, err := orchestrator.SubmitOne(context.Background(), models.ReviewPayload{ID: "a", Text: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Focus())

	orchestrator.RunBatch(context.Background(), []models.TemplateRow{{ID: "b", Content: "y"}})
	assert.Equal(t, 0, session.Focus())
	assert.Len(t, session.Items(), 2)
}

func TestRunBatchResubmissionIsUpsert(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"1": reviewableOutputs("first pass"),
		},
	}
	orchestrator, session, _ := newTestOrchestrator(engine)

	orchestrator.RunBatch(context.Background(), []models.TemplateRow{{ID: "1", Content: "x"}})

	engine.outputs["1"] = reviewableOutputs("second pass")
	orchestrator.RunBatch(context.Background(), []models.TemplateRow{{ID: "1", Content: "x"}})

	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "second pass", items[0].DisplayText)
}

func TestRunBatchAppliesDelayAfterLocalFailures(t *testing.T) {
	engine := &fakeEngine{}
	session := NewSession()
	log := NewOutcomeLog()
	orchestrator := NewOrchestrator(engine, session, log, 30*time.Millisecond)

	rows := []models.TemplateRow{{ID: "1"}, {ID: "2"}}

	start := time.Now()
	orchestrator.RunBatch(context.Background(), rows)
	elapsed := time.Since(start)

	// Both rows fail locally, and the throttle still applies to each.
	assert.Equal(t, 0, engine.calls)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"1": reviewableOutputs("a"),
			"2": reviewableOutputs("b"),
		},
	}
	orchestrator, _, _ := newTestOrchestrator(engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, summary := orchestrator.RunBatch(ctx, []models.TemplateRow{
		{ID: "1", Content: "a"},
		{ID: "2", Content: "b"},
	})

	assert.Empty(t, results)
	assert.Equal(t, 0, summary.SuccessCount+summary.FailureCount)
	assert.Equal(t, 0, engine.calls)
}

func TestSubmitOneRecordsFailures(t *testing.T) {
	engine := &fakeEngine{
		err: map[string]error{
			"a": &clients.EngineError{Msg: "engine down"},
		},
	}
	orchestrator, _, log := newTestOrchestrator(engine)

	_, err := orchestrator.SubmitOne(context.Background(), models.ReviewPayload{ID: "a", Text: "x"}, nil)

	var engineErr *clients.EngineError
	require.ErrorAs(t, err, &engineErr)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
	assert.True(t, strings.HasPrefix(entries[0].Result, "Error: "))
}

func TestSubmitOneAssignsManualID(t *testing.T) {
	engine := &fakeEngine{}
	orchestrator, _, log := newTestOrchestrator(engine)

	_, err := orchestrator.SubmitOne(context.Background(), models.ReviewPayload{Text: "x"}, nil)
	require.NoError(t, err)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ID, "manual-")
}

func TestSubmitOnePropagatesNormalizeError(t *testing.T) {
	engine := &fakeEngine{
		outputs: map[string]models.EngineOutputs{
			"a": {"bogus": true},
		},
	}
	orchestrator, _, _ := newTestOrchestrator(engine)

	_, err := orchestrator.SubmitOne(context.Background(), models.ReviewPayload{ID: "a", Text: "x"}, nil)

	var normErr *NormalizeError
	require.ErrorAs(t, err, &normErr)
	assert.False(t, errors.Is(err, ErrEmptyLog))
}
