package models

// EngineOutputs is the free-form mapping the workflow engine returns. No
// key is guaranteed present; recognized keys are type, results, text,
// content and photo.
type EngineOutputs map[string]any

func (o EngineOutputs) stringValue(key string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return ""
}

func (o EngineOutputs) Type() string    { return o.stringValue("type") }
func (o EngineOutputs) Text() string    { return o.stringValue("text") }
func (o EngineOutputs) Content() string { return o.stringValue("content") }

func (o EngineOutputs) Photo() any { return o["photo"] }

func (o EngineOutputs) Results() map[string]any {
	if v, ok := o["results"].(map[string]any); ok {
		return v
	}
	return nil
}

func (o EngineOutputs) Has(key string) bool {
	v, ok := o[key]
	return ok && v != nil && v != ""
}

type WorkflowRunRequest struct {
	AppID        string         `json:"app_id"`
	Inputs       map[string]any `json:"inputs"`
	ResponseMode string         `json:"response_mode"`
	User         string         `json:"user"`
}

// WorkflowRunResponse tolerates the engine nesting outputs/status/error one
// level under data or returning them at top level.
type WorkflowRunResponse struct {
	Data    *WorkflowRunResult `json:"data,omitempty"`
	Outputs EngineOutputs      `json:"outputs,omitempty"`
	Status  string             `json:"status,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type WorkflowRunResult struct {
	Outputs EngineOutputs `json:"outputs,omitempty"`
	Status  string        `json:"status,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func (r WorkflowRunResponse) ResolvedOutputs() EngineOutputs {
	if r.Data != nil && r.Data.Outputs != nil {
		return r.Data.Outputs
	}
	return r.Outputs
}

func (r WorkflowRunResponse) ResolvedStatus() string {
	if r.Data != nil && r.Data.Status != "" {
		return r.Data.Status
	}
	if r.Status != "" {
		return r.Status
	}
	return "succeeded"
}

func (r WorkflowRunResponse) ResolvedError() string {
	if r.Data != nil && r.Data.Error != "" {
		return r.Data.Error
	}
	return r.Error
}

type FileUploadResponse struct {
	ID   string `json:"id,omitempty"`
	Data *struct {
		ID string `json:"id,omitempty"`
	} `json:"data,omitempty"`
}

func (r FileUploadResponse) FileID() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Data != nil {
		return r.Data.ID
	}
	return ""
}
