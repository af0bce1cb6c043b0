package handlers

import (
	"net/http"

	"focusquest/internal/models"
	"focusquest/internal/service"

	"github.com/gorilla/mux"
)

// MedicationHandler serves reminders, settings, doses and adherence
type MedicationHandler struct {
	medicationService *service.MedicationService
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(medicationService *service.MedicationService) *MedicationHandler {
	return &MedicationHandler{medicationService: medicationService}
}

type reminderRequest struct {
	MedicationName string   `json:"medicationName" validate:"required,max=255"`
	Dosage         string   `json:"dosage" validate:"required,max=255"`
	Frequency      string   `json:"frequency" validate:"max=64"`
	Times          []string `json:"times" validate:"required,min=1,dive,required"`
	StartDate      string   `json:"startDate" validate:"required"`
	EndDate        string   `json:"endDate"`
	Notes          string   `json:"notes" validate:"max=2000"`
}

func (req reminderRequest) input() service.ReminderInput {
	return service.ReminderInput{
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		Frequency:      req.Frequency,
		Times:          req.Times,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Notes:          req.Notes,
	}
}

type settingsRequest struct {
	ReminderAdvanceMinutes    int  `json:"reminderAdvanceMinutes" validate:"gte=0,lte=240"`
	AllowChildToMarkTaken     bool `json:"allowChildToMarkTaken"`
	RequireParentConfirmation bool `json:"requireParentConfirmation"`
	EnableSoundAlerts         bool `json:"enableSoundAlerts"`
	EnablePushNotifications   bool `json:"enablePushNotifications"`
	MissedDoseAlertMinutes    int  `json:"missedDoseAlertMinutes" validate:"gte=0,lte=1440"`
}

type markRequest struct {
	Status models.DoseStatus `json:"status" validate:"required,oneof=taken missed delayed"`
	Notes  string            `json:"notes" validate:"max=2000"`
}

// ListReminders lists a child's reminders
func (h *MedicationHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.medicationService.ListReminders(r.Context(), actorOf(r), mux.Vars(r)["childId"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if reminders == nil {
		reminders = []models.MedicationReminder{}
	}
	respondJSON(w, http.StatusOK, reminders)
}

// CreateReminder adds a reminder
func (h *MedicationHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	rem, err := h.medicationService.CreateReminder(r.Context(), actorOf(r), mux.Vars(r)["childId"], req.input())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rem)
}

// GetReminder returns one reminder
func (h *MedicationHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := h.medicationService.GetReminder(r.Context(), actorOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

// UpdateReminder replaces a reminder's schedule
func (h *MedicationHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	rem, err := h.medicationService.UpdateReminder(r.Context(), actorOf(r), mux.Vars(r)["id"], req.input())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

// DeactivateReminder stops a reminder
func (h *MedicationHandler) DeactivateReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := h.medicationService.DeactivateReminder(r.Context(), actorOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

// GetSettings returns a child's medication settings
func (h *MedicationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.medicationService.GetSettings(r.Context(), actorOf(r), mux.Vars(r)["childId"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings replaces a child's medication settings
func (h *MedicationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	settings, err := h.medicationService.UpdateSettings(r.Context(), actorOf(r), mux.Vars(r)["childId"], service.SettingsInput{
		ReminderAdvanceMinutes:    req.ReminderAdvanceMinutes,
		AllowChildToMarkTaken:     req.AllowChildToMarkTaken,
		RequireParentConfirmation: req.RequireParentConfirmation,
		EnableSoundAlerts:         req.EnableSoundAlerts,
		EnablePushNotifications:   req.EnablePushNotifications,
		MissedDoseAlertMinutes:    req.MissedDoseAlertMinutes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// ListDoses lists doses between ?from= and ?to= (YYYY-MM-DD, default today)
func (h *MedicationHandler) ListDoses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doses, err := h.medicationService.ListDoses(r.Context(), actorOf(r), mux.Vars(r)["childId"], q.Get("from"), q.Get("to"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if doses == nil {
		doses = []models.MedicationDoseLog{}
	}
	respondJSON(w, http.StatusOK, doses)
}

// MarkDose records a dose outcome
func (h *MedicationHandler) MarkDose(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	dose, err := h.medicationService.MarkDose(r.Context(), actorOf(r), mux.Vars(r)["id"], req.Status, req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dose)
}

// Adherence reports dose outcomes over ?days= (default 7)
func (h *MedicationHandler) Adherence(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	report, err := h.medicationService.Adherence(r.Context(), actorOf(r), mux.Vars(r)["childId"], days)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
