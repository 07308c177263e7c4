package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spacesedan/sentinel-review/config"
	"github.com/spacesedan/sentinel-review/internal/models"
)

// EngineError carries a failure reported by (or while reaching) the
// external workflow engine. The upstream message is preserved verbatim.
type EngineError struct {
	Msg string
	Err error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// ValidationError is a local input failure detected before any network
// call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PhotoFile is an uploaded image attached to a submission, already read
// into memory by the boundary layer.
type PhotoFile struct {
	Name     string
	MimeType string
	Content  []byte
}

var mimeTypesByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// EngineClient performs one submission at a time against the external
// review engine. Constructed once at startup and passed by reference;
// it reads no environment state after construction.
type EngineClient struct {
	cfg    config.EngineConfig
	client *http.Client
}

func NewEngineClient(cfg config.EngineConfig) *EngineClient {
	slog.Info("[EngineClient] Initializing client",
		slog.String("base_url", cfg.BaseURL),
		slog.Duration("timeout", REQUEST_TIMEOUT))

	return &EngineClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: REQUEST_TIMEOUT,
		},
	}
}

// Submit sends one review request to the engine and returns its raw
// outputs. The text value is copied into both the text and Content inputs
// for engine-template compatibility.
func (c *EngineClient) Submit(ctx context.Context, payload models.ReviewPayload, photoFile *PhotoFile) (models.EngineOutputs, error) {
	inputs := map[string]any{}

	if trimmed := strings.TrimSpace(payload.Text); trimmed != "" {
		inputs["text"] = trimmed
		inputs["Content"] = trimmed
	}

	photo, err := c.buildPhotoPayload(ctx, payload, photoFile)
	if err != nil {
		return nil, err
	}
	if photo != nil {
		inputs["photo"] = photo
	}

	if len(inputs) == 0 {
		return nil, &ValidationError{Msg: "at least one input (text or photo) is required"}
	}

	request := models.WorkflowRunRequest{
		AppID:        c.cfg.AppID,
		Inputs:       inputs,
		ResponseMode: RESPONSE_MODE,
		User:         c.cfg.UserID,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+WORKFLOW_RUN_PATH, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("User-Agent", USER_AGENT)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("[EngineClient] Workflow request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, &EngineError{Msg: "workflow request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EngineError{Msg: "failed to read workflow response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("[EngineClient] Workflow returned non-success status",
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return nil, &EngineError{Msg: fmt.Sprintf("workflow failed: %s", strings.TrimSpace(string(respBody)))}
	}

	var run models.WorkflowRunResponse
	if err := json.Unmarshal(respBody, &run); err != nil {
		slog.Error("[EngineClient] Failed to unmarshal workflow response",
			getPreview(respBody),
			slog.String("error", err.Error()))
		return nil, &EngineError{Msg: "failed to unmarshal workflow response", Err: err}
	}

	if run.ResolvedStatus() == "failed" {
		msg := run.ResolvedError()
		if msg == "" {
			msg = "workflow failed"
		}
		return nil, &EngineError{Msg: msg}
	}

	slog.Debug("[EngineClient] Workflow request succeeded",
		slog.Duration("elapsed", time.Since(start)))

	outputs := run.ResolvedOutputs()
	if outputs == nil {
		outputs = models.EngineOutputs{}
	}
	return outputs, nil
}

// buildPhotoPayload resolves the photo input in priority order: attached
// binary, remote URL, local filesystem path.
func (c *EngineClient) buildPhotoPayload(ctx context.Context, payload models.ReviewPayload, photoFile *PhotoFile) (map[string]any, error) {
	if photoFile != nil {
		fileID, err := c.uploadBinary(ctx, photoFile.Name, photoFile.Content, photoFile.MimeType)
		if err != nil {
			return nil, err
		}
		return localFilePayload(fileID), nil
	}

	if payload.Photo == "" {
		return nil, nil
	}

	lowered := strings.ToLower(payload.Photo)
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return map[string]any{
			"type":            "image",
			"transfer_method": "remote_url",
			"url":             payload.Photo,
		}, nil
	}

	fileID, err := c.uploadLocalPath(ctx, payload.Photo)
	if err != nil {
		return nil, err
	}
	return localFilePayload(fileID), nil
}

func localFilePayload(fileID string) map[string]any {
	return map[string]any{
		"type":            "image",
		"transfer_method": "local_file",
		"upload_file_id":  fileID,
	}
}

func (c *EngineClient) uploadLocalPath(ctx context.Context, photoPath string) (string, error) {
	if c.cfg.Serverless {
		return "", &EngineError{Msg: "local file paths are not supported in serverless environments, use remote URLs instead"}
	}

	resolved, err := filepath.Abs(photoPath)
	if err != nil {
		return "", &ValidationError{Msg: fmt.Sprintf("file not found: %s", photoPath)}
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", &ValidationError{Msg: fmt.Sprintf("file not found: %s", resolved)}
	}

	mimeType := mimeTypesByExt[strings.ToLower(filepath.Ext(resolved))]
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return c.uploadBinary(ctx, filepath.Base(resolved), content, mimeType)
}

func (c *EngineClient) uploadBinary(ctx context.Context, filename string, content []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := form.WriteField("user", c.cfg.UserID); err != nil {
		return "", fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+UPLOAD_PATH, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("[EngineClient] File upload failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return "", &EngineError{Msg: "file upload failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &EngineError{Msg: "failed to read upload response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &EngineError{Msg: fmt.Sprintf("file upload failed: %s", strings.TrimSpace(string(respBody)))}
	}

	var upload models.FileUploadResponse
	if err := json.Unmarshal(respBody, &upload); err != nil {
		return "", &EngineError{Msg: "failed to unmarshal upload response", Err: err}
	}

	fileID := upload.FileID()
	if fileID == "" {
		return "", &EngineError{Msg: "upload response missing file id"}
	}

	slog.Debug("[EngineClient] File uploaded",
		slog.String("filename", filename),
		slog.String("file_id", fileID))

	return fileID, nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}
