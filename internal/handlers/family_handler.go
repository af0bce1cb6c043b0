package handlers

import (
	"net/http"

	"focusquest/internal/service"
)

// FamilyHandler handles parent and child profile requests
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type parentRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
}

type childRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpsertMe registers or updates the authenticated parent
func (h *FamilyHandler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	var req parentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	parent, err := h.familyService.UpsertParent(r.Context(), actorOf(r), req.Name, req.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}

// GetMe returns the authenticated parent
func (h *FamilyHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	if !actor.IsParent() {
		respondServiceError(w, service.ErrPermissionDenied)
		return
	}
	parent, err := h.familyService.GetParent(r.Context(), actor.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}

// CreateChild adds a child to the authenticated parent
func (h *FamilyHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	child, err := h.familyService.CreateChild(r.Context(), actorOf(r), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, child)
}

// ListChildren lists the authenticated parent's children
func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.familyService.ListChildren(r.Context(), actorOf(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, children)
}
