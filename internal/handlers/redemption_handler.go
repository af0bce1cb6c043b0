package handlers

import (
	"net/http"

	"focusquest/internal/models"
	"focusquest/internal/service"

	"github.com/gorilla/mux"
)

// RedemptionHandler serves the reward catalog and redemption workflow
type RedemptionHandler struct {
	redemptionService *service.RedemptionService
}

// NewRedemptionHandler creates a new redemption handler
func NewRedemptionHandler(redemptionService *service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

type catalogRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	PointsCost  int    `json:"pointsCost" validate:"required,gt=0"`
	Category    string `json:"category" validate:"max=64"`
}

func (c catalogRequest) input() service.CatalogInput {
	return service.CatalogInput{Title: c.Title, Description: c.Description, PointsCost: c.PointsCost, Category: c.Category}
}

type redemptionRequest struct {
	RewardID string `json:"rewardId" validate:"required"`
}

type resolveRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// ListCatalog lists a child's catalog; ?activeOnly=true hides retired items
func (h *RedemptionHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.redemptionService.ListCatalog(r.Context(), actorOf(r), mux.Vars(r)["childId"], queryBool(r, "activeOnly"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.RewardCatalogItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateCatalogItem adds a catalog item
func (h *RedemptionHandler) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	item, err := h.redemptionService.CreateCatalogItem(r.Context(), actorOf(r), mux.Vars(r)["childId"], req.input())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateCatalogItem edits a catalog item
func (h *RedemptionHandler) UpdateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	item, err := h.redemptionService.UpdateCatalogItem(r.Context(), actorOf(r), mux.Vars(r)["id"], req.input())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeactivateCatalogItem retires a catalog item
func (h *RedemptionHandler) DeactivateCatalogItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.redemptionService.DeactivateCatalogItem(r.Context(), actorOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Request holds points for a catalog item
func (h *RedemptionHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req redemptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	redemption, err := h.redemptionService.RequestRedemption(r.Context(), actorOf(r), mux.Vars(r)["childId"], req.RewardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, redemption)
}

// List lists a child's redemptions; ?status= filters
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.RedemptionStatus(r.URL.Query().Get("status"))
	reqs, err := h.redemptionService.ListRedemptions(r.Context(), actorOf(r), mux.Vars(r)["childId"], status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if reqs == nil {
		reqs = []models.RedemptionRequest{}
	}
	respondJSON(w, http.StatusOK, reqs)
}

// Resolve approves or rejects a pending redemption
func (h *RedemptionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	redemption, err := h.redemptionService.ResolveRedemption(r.Context(), actorOf(r), mux.Vars(r)["id"], *req.Approve)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, redemption)
}

// Complete marks an approved redemption delivered
func (h *RedemptionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	redemption, err := h.redemptionService.CompleteRedemption(r.Context(), actorOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, redemption)
}
