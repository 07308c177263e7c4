package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/spacesedan/sentinel-review/internal/clients"
	"github.com/spacesedan/sentinel-review/internal/models"
	"github.com/spacesedan/sentinel-review/internal/review"
	"github.com/spacesedan/sentinel-review/internal/template"
	"github.com/spacesedan/sentinel-review/internal/utils"
)

const maxUploadBytes = 32 << 20

type batchRequest struct {
	Items []struct {
		ID    string `json:"id"`
		Text  string `json:"text"`
		Photo string `json:"photo"`
	} `json:"items"`
}

type decisionRequest struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSingleReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	payload := models.ReviewPayload{
		ID:    r.FormValue("id"),
		Text:  r.FormValue("text"),
		Photo: r.FormValue("photo"),
	}

	var photoFile *clients.PhotoFile
	if file, header, err := r.FormFile("photo_file"); err == nil {
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read photo file"})
			return
		}
		photoFile = &clients.PhotoFile{
			Name:     header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Content:  content,
		}
	}

	outputs, err := s.orchestrator.SubmitOne(r.Context(), payload, photoFile)
	if err != nil {
		utils.WriteJSON(w, statusForError(err), models.BatchItemResult{
			ID:     payload.ID,
			Status: "failed",
			Error:  err.Error(),
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.BatchItemResult{
		ID:      payload.ID,
		Status:  "succeeded",
		Outputs: outputs,
	})
}

func (s *Server) handleBatchReview(w http.ResponseWriter, r *http.Request) {
	var request batchRequest
	if err := utils.DecodeJSONBody(r.Body, &request); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: items must be an array"})
		return
	}

	rows := make([]models.TemplateRow, 0, len(request.Items))
	for _, item := range request.Items {
		rows = append(rows, models.TemplateRow{
			ID:      item.ID,
			Content: item.Text,
			Photo:   item.Photo,
		})
	}

	results, summary := s.orchestrator.RunBatch(r.Context(), rows)

	slog.Info("[Server] Batch request complete",
		slog.Int("rows", len(rows)),
		slog.Int("success", summary.SuccessCount),
		slog.Int("failed", summary.FailureCount))

	utils.WriteJSON(w, http.StatusOK, results)
}

func (s *Server) handleTemplateParse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "template file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read template file"})
		return
	}

	rows, err := template.Parse(header.Filename, data)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"count": len(rows),
	})
}

func (s *Server) handleTemplateDownload(w http.ResponseWriter, r *http.Request) {
	format := template.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = template.FormatCSV
	}

	filename, data, err := template.Generate(format)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	serveAttachment(w, filename, data, contentTypeForFormat(format))
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var request decisionRequest
	if err := utils.DecodeJSONBody(r.Body, &request); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	status := models.ReviewStatus(request.Status)
	if status != models.ReviewStatusApproved && status != models.ReviewStatusRejected {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "status must be approved or rejected"})
		return
	}

	if err := s.session.Decide(request.ItemID, status); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result := "Safe"
	if status == models.ReviewStatusRejected {
		result = "Unsafe"
	}
	s.log.Record(request.ItemID, result)

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"item_id": request.ItemID,
		"status":  status,
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"items":     s.session.Items(),
		"focus":     s.session.Focus(),
		"decisions": s.session.Decisions(),
	})
}

func (s *Server) handleLogExport(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.log.ExportCSV()
	if err != nil {
		if errors.Is(err, review.ErrEmptyLog) {
			utils.WriteJSON(w, http.StatusOK, map[string]any{"message": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	serveAttachment(w, filename, data, "text/csv; charset=utf-8")
}

// statusForError maps the error taxonomy to boundary status codes: local
// validation 400, upstream engine failures 502, anything else 500.
func statusForError(err error) int {
	var validationErr *clients.ValidationError
	var engineErr *clients.EngineError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &engineErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func contentTypeForFormat(format template.Format) string {
	switch format {
	case template.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case template.FormatXLS:
		return "application/vnd.ms-excel"
	default:
		return "text/csv; charset=utf-8"
	}
}

func serveAttachment(w http.ResponseWriter, filename string, data []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}
