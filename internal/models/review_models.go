package models

import "time"

type ReviewStatus string

const (
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusPending  ReviewStatus = "pending"
)

type ContentKind string

const (
	ContentKindText  ContentKind = "text"
	ContentKindImage ContentKind = "image"
	ContentKindMixed ContentKind = "mixed"
)

// TemplateRow is one entry of an uploaded batch template. Rows without an
// id never survive parsing.
type TemplateRow struct {
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
	Photo   string `json:"photo,omitempty"`
}

// ReviewPayload is the union of values submitted for one item. At least one
// of Text / Photo / an attached photo file must be present.
type ReviewPayload struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text,omitempty"`
	Photo string `json:"photo,omitempty"`
}

type AiPrediction struct {
	RiskTypes   []string       `json:"risk_types"`
	Explanation string         `json:"explanation"`
	RawResults  map[string]any `json:"raw_results,omitempty"`
}

// ContentItem is the canonical unit of review: one piece of content plus
// the engine's prediction for it. OriginalText carries the unsanitized
// variant when the engine returned both text and content with different
// values.
type ContentItem struct {
	ID           string       `json:"id"`
	Kind         ContentKind  `json:"kind"`
	DisplayText  string       `json:"display_text,omitempty"`
	OriginalText string       `json:"original_text,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	Prediction   AiPrediction `json:"prediction"`
}

type ReviewDecision struct {
	ItemID    string       `json:"item_id"`
	Status    ReviewStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}

// ReviewLogEntry is one line of the exportable audit trail. Append-only.
type ReviewLogEntry struct {
	ID        string    `json:"id"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

type BatchItemResult struct {
	ID      string         `json:"id,omitempty"`
	Status  string         `json:"status"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type BatchSummary struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

func (s BatchSummary) HasFailures() bool {
	return s.FailureCount > 0
}
