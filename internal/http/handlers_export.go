package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type submitExportResponse struct {
	TaskID string `json:"task_id"`
	Detail string `json:"detail"`
}

type exportStatusResponse struct {
	Status  string `json:"status"`
	FileURL string `json:"file_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleSubmitExport(w http.ResponseWriter, r *http.Request) {
	jobID, err := s.exports.Submit(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, submitExportResponse{
		TaskID: jobID,
		Detail: "export started",
	})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	status, err := s.exports.Status(r.Context(), currentUser(r.Context()).ID, taskID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, exportStatusResponse{
		Status:  status.Status,
		FileURL: status.FileURL,
		Error:   status.Error,
	})
}
