package handlers

import (
	"net/http"

	"focusquest/internal/models"
	"focusquest/internal/service"

	"github.com/gorilla/mux"
)

// RewardHandler serves the points ledger
type RewardHandler struct {
	ledgerService *service.LedgerService
	familyService *service.FamilyService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(ledgerService *service.LedgerService, familyService *service.FamilyService) *RewardHandler {
	return &RewardHandler{ledgerService: ledgerService, familyService: familyService}
}

type awardRequest struct {
	Points   int                   `json:"points" validate:"required,gt=0"`
	Reason   string                `json:"reason" validate:"required,max=255"`
	Category models.RewardCategory `json:"category" validate:"omitempty,oneof=bonus behavior_improvement focus_improvement"`
	SourceID string                `json:"sourceId" validate:"omitempty,max=128"`
}

type completeRequest struct {
	Title string `json:"title" validate:"omitempty,max=255"`
}

type awardResponse struct {
	Event   *models.RewardEvent `json:"event"`
	Created bool                `json:"created"`
}

// authorize resolves {childId} and checks the actor may see it
func (h *RewardHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	childID := mux.Vars(r)["childId"]
	if _, err := h.familyService.AuthorizeChild(r.Context(), actorOf(r), childID); err != nil {
		respondServiceError(w, err)
		return "", false
	}
	return childID, true
}

// GetProfile returns the child's balance, level and streak
func (h *RewardHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	childID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	profile, err := h.ledgerService.GetProfile(r.Context(), childID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// ListEvents returns recent ledger entries
func (h *RewardHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	childID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	events, err := h.ledgerService.ListEvents(r.Context(), childID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []models.RewardEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}

// Daily returns today's stickers, badges and stars
func (h *RewardHandler) Daily(w http.ResponseWriter, r *http.Request) {
	childID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	summary, err := h.ledgerService.DailySummary(r.Context(), childID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Weekly returns points earned this week by category
func (h *RewardHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	childID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	summary, err := h.ledgerService.WeeklySummary(r.Context(), childID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Award grants parent bonus points
func (h *RewardHandler) Award(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	ev, created, err := h.ledgerService.AwardBonus(r.Context(), actorOf(r), mux.Vars(r)["childId"], req.Points, req.Reason, req.Category, req.SourceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondAward(w, ev, created)
}

// CompleteScheduleItem awards points for a finished schedule item once
func (h *RewardHandler) CompleteScheduleItem(w http.ResponseWriter, r *http.Request) {
	childID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	ev, created, err := h.ledgerService.CompleteScheduleItem(r.Context(), childID, mux.Vars(r)["itemId"], req.Title)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondAward(w, ev, created)
}

func respondAward(w http.ResponseWriter, ev *models.RewardEvent, created bool) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, awardResponse{Event: ev, Created: created})
}
