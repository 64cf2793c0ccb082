package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Title string `json:"title"`
}

type categoryPatchRequest struct {
	Title *string `json:"title"`
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	UserID int64  `json:"user_id"`
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Title: c.Title, UserID: c.UserID}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, core.ErrMalformedBody)
		return
	}

	category, err := s.categories.Create(r.Context(), currentUser(r.Context()).ID, core.NewCategoryInput{Title: req.Title})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCategoryResponse(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, newCategoryResponse(c))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	category, err := s.categories.Get(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req categoryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, core.ErrMalformedBody)
		return
	}

	category, err := s.categories.Update(r.Context(), currentUser(r.Context()).ID, id, core.CategoryPatch{Title: req.Title})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.categories.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
