package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/sentinel-review/internal/clients"
	"github.com/spacesedan/sentinel-review/internal/models"
)

const validationRequiredMsg = "row must supply content or photo"

// EngineSubmitter is the one engine operation the orchestrator needs; the
// real client satisfies it, tests substitute a fake.
type EngineSubmitter interface {
	Submit(ctx context.Context, payload models.ReviewPayload, photoFile *clients.PhotoFile) (models.EngineOutputs, error)
}

// Orchestrator drives submissions through the engine, the normalizer and
// the session. Batch processing is strictly sequential: submitMu
// guarantees at most one in-flight engine call system-wide, which is the
// deliberate backpressure toward the upstream rate limit.
type Orchestrator struct {
	engine  EngineSubmitter
	session *Session
	log     *OutcomeLog
	delay   time.Duration

	submitMu sync.Mutex
}

func NewOrchestrator(engine EngineSubmitter, session *Session, log *OutcomeLog, delay time.Duration) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		session: session,
		log:     log,
		delay:   delay,
	}
}

// SubmitOne runs an interactive single-item submission: the new item takes
// focus and errors propagate to the caller for boundary status mapping.
// The outcome is recorded in the log either way.
func (o *Orchestrator) SubmitOne(ctx context.Context, payload models.ReviewPayload, photoFile *clients.PhotoFile) (models.EngineOutputs, error) {
	if payload.ID == "" {
		payload.ID = fmt.Sprintf("manual-%d", time.Now().UnixMilli())
	}

	outputs, err := o.runSubmission(ctx, payload, photoFile, true)
	if err != nil {
		o.log.Record(payload.ID, "Error: "+err.Error())
		return nil, err
	}
	return outputs, nil
}

// RunBatch iterates rows sequentially, applying the configured delay after
// every row, including locally rejected ones. One row's failure never
// stops the batch; the context is checked between rows so a caller can
// cancel after the in-flight row.
func (o *Orchestrator) RunBatch(ctx context.Context, rows []models.TemplateRow) ([]models.BatchItemResult, models.BatchSummary) {
	results := make([]models.BatchItemResult, 0, len(rows))
	var summary models.BatchSummary

	for _, row := range rows {
		if ctx.Err() != nil {
			slog.Warn("[Orchestrator] Batch cancelled",
				slog.Int("processed", len(results)),
				slog.Int("remaining", len(rows)-len(results)))
			break
		}

		if row.Content == "" && row.Photo == "" {
			summary.FailureCount++
			o.log.Record(row.ID, "Error: "+validationRequiredMsg)
			results = append(results, models.BatchItemResult{
				ID:     row.ID,
				Status: "failed",
				Error:  validationRequiredMsg,
			})
			slog.Warn("[Orchestrator] Row rejected before submission",
				slog.String("id", row.ID))
			o.wait(ctx)
			continue
		}

		payload := models.ReviewPayload{
			ID:    row.ID,
			Text:  row.Content,
			Photo: row.Photo,
		}

		outputs, err := o.runSubmission(ctx, payload, nil, false)
		if err != nil {
			summary.FailureCount++
			o.log.Record(row.ID, "Error: "+err.Error())
			results = append(results, models.BatchItemResult{
				ID:     row.ID,
				Status: "failed",
				Error:  err.Error(),
			})
			slog.Warn("[Orchestrator] Row submission failed",
				slog.String("id", row.ID),
				slog.String("error", err.Error()))
		} else {
			summary.SuccessCount++
			results = append(results, models.BatchItemResult{
				ID:      row.ID,
				Status:  "succeeded",
				Outputs: outputs,
			})
		}

		o.wait(ctx)
	}

	if summary.HasFailures() {
		slog.Warn("[Orchestrator] Batch finished with failures",
			slog.Int("success", summary.SuccessCount),
			slog.Int("failed", summary.FailureCount))
	} else {
		slog.Info("[Orchestrator] Batch finished",
			slog.Int("success", summary.SuccessCount),
			slog.Int("failed", summary.FailureCount))
	}

	return results, summary
}

// runSubmission performs one engine round trip and routes the normalized
// response: a bare status signal is logged, a content item is upserted
// into the session.
func (o *Orchestrator) runSubmission(ctx context.Context, payload models.ReviewPayload, photoFile *clients.PhotoFile, focusNewItem bool) (models.EngineOutputs, error) {
	o.submitMu.Lock()
	outputs, err := o.engine.Submit(ctx, payload, photoFile)
	o.submitMu.Unlock()
	if err != nil {
		return nil, err
	}

	normalized, err := Normalize(outputs, payload.ID)
	if err != nil {
		return nil, err
	}

	switch normalized.Kind {
	case NormalizedStatus:
		o.log.Record(payload.ID, normalized.Status)
		slog.Info("[Orchestrator] Engine returned status signal",
			slog.String("id", payload.ID),
			slog.String("status", normalized.Status))
	case NormalizedItem:
		o.session.Upsert(*normalized.Item, focusNewItem)
		o.log.Record(payload.ID, "succeeded")
		slog.Debug("[Orchestrator] Item upserted",
			slog.String("id", normalized.Item.ID),
			slog.String("kind", string(normalized.Item.Kind)),
			slog.String("risk_types", strings.Join(normalized.Item.Prediction.RiskTypes, ",")))
	}

	return outputs, nil
}

func (o *Orchestrator) wait(ctx context.Context) {
	if o.delay <= 0 {
		return
	}

	timer := time.NewTimer(o.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
