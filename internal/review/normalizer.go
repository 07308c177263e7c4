package review

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spacesedan/sentinel-review/internal/models"
)

const (
	NO_RISK_LABEL  = "No risk detected"
	NO_EXPLANATION = "No explanation provided"

	riskTypesKey          = "有害内容类型"
	explanationKey        = "原因解释"
	explanationEnglishKey = "explanation"
)

// NormalizeError signals an engine response whose shape matches none of
// the recognized forms.
type NormalizeError struct {
	Msg string
}

func (e *NormalizeError) Error() string { return e.Msg }

type NormalizedKind int

const (
	NormalizedStatus NormalizedKind = iota
	NormalizedItem
)

// Normalized is the tagged union an engine response resolves to: either a
// bare terminal status or a reviewable content item.
type Normalized struct {
	Kind   NormalizedKind
	Status string
	Item   *models.ContentItem
}

// Normalize maps raw engine outputs to a Normalized value. The engine's
// response shape is not contractually fixed; the three-way branch below is
// the single place in the system that interprets it.
func Normalize(outputs models.EngineOutputs, preferredID string) (Normalized, error) {
	hasResults := outputs.Has("results")
	hasContent := outputs.Has("content") || outputs.Has("photo") || outputs.Has("text")

	if outputs.Has("type") && !hasResults && !hasContent {
		return Normalized{Kind: NormalizedStatus, Status: outputs.Type()}, nil
	}

	if hasResults && hasContent {
		item, err := buildContentItem(outputs, preferredID)
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{Kind: NormalizedItem, Item: item}, nil
	}

	return Normalized{}, &NormalizeError{Msg: "unhandled response shape from engine"}
}

func buildContentItem(outputs models.EngineOutputs, preferredID string) (*models.ContentItem, error) {
	sanitized := strings.TrimSpace(outputs.Text())
	original := strings.TrimSpace(outputs.Content())

	displayText := sanitized
	if displayText == "" {
		displayText = original
	}

	// When the engine returns both fields with different values, text is
	// taken as the sanitized view and content as the raw one. This is a
	// field-name convention observed in practice, not a verified engine
	// contract.
	originalText := ""
	if sanitized != "" && original != "" && sanitized != original {
		originalText = original
	}

	imageURL := ResolvePhotoURL(outputs.Photo())

	if displayText == "" && imageURL == "" {
		return nil, &NormalizeError{Msg: "unexpected response from engine"}
	}

	kind := models.ContentKindText
	switch {
	case imageURL != "" && displayText != "":
		kind = models.ContentKindMixed
	case imageURL != "":
		kind = models.ContentKindImage
	}

	id := preferredID
	if id == "" {
		id = "engine-" + uuid.NewString()
	}

	return &models.ContentItem{
		ID:           id,
		Kind:         kind,
		DisplayText:  displayText,
		OriginalText: originalText,
		ImageURL:     imageURL,
		Prediction: models.AiPrediction{
			RiskTypes:   extractRiskTypes(outputs.Results()),
			Explanation: extractExplanation(outputs.Results()),
			RawResults:  outputs.Results(),
		},
	}, nil
}

// ResolvePhotoURL extracts a display URL from the engine's photo value,
// which arrives either as a bare string or as an object keyed url /
// remote_url / preview_url / urls[0].
func ResolvePhotoURL(photo any) string {
	switch v := photo.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"url", "remote_url", "preview_url"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
		if urls, ok := v["urls"].([]any); ok && len(urls) > 0 {
			if s, ok := urls[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func extractRiskTypes(results map[string]any) []string {
	var labels []string

	switch raw := results[riskTypesKey].(type) {
	case []any:
		for _, v := range raw {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				labels = append(labels, s)
			}
		}
	case string:
		// Both the ASCII and the full-width comma occur in engine output.
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '，' }) {
			if s := strings.TrimSpace(part); s != "" {
				labels = append(labels, s)
			}
		}
	}

	if len(labels) == 0 {
		return []string{NO_RISK_LABEL}
	}
	return labels
}

func extractExplanation(results map[string]any) string {
	if s, ok := results[explanationKey].(string); ok && s != "" {
		return s
	}
	if s, ok := results[explanationEnglishKey].(string); ok && s != "" {
		return s
	}
	return NO_EXPLANATION
}
