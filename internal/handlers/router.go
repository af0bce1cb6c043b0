package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Routes bundles the handlers mounted by NewRouter
type Routes struct {
	Middleware    *Middleware
	Family        *FamilyHandler
	Rewards       *RewardHandler
	Redemptions   *RedemptionHandler
	Medication    *MedicationHandler
	Notifications *NotificationHandler
	// Stream upgrades to a WebSocket and authenticates from the query string
	Stream http.Handler
}

// NewRouter builds the HTTP API wrapped with CORS and request logging
func NewRouter(rt Routes, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if rt.Stream != nil {
		r.Handle("/api/notifications/stream", rt.Stream).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rt.Middleware.RequireAuth, rt.Middleware.RateLimit)

	// Family
	api.HandleFunc("/parents/me", rt.Family.GetMe).Methods(http.MethodGet)
	api.HandleFunc("/parents/me", rt.Family.UpsertMe).Methods(http.MethodPut)
	api.HandleFunc("/children", rt.Family.ListChildren).Methods(http.MethodGet)
	api.HandleFunc("/children", rt.Family.CreateChild).Methods(http.MethodPost)

	// Ledger
	api.HandleFunc("/children/{childId}/rewards/profile", rt.Rewards.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/rewards/events", rt.Rewards.ListEvents).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/rewards/daily", rt.Rewards.Daily).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/rewards/weekly", rt.Rewards.Weekly).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/rewards/award", rt.Rewards.Award).Methods(http.MethodPost)
	api.HandleFunc("/children/{childId}/schedule/{itemId}/complete", rt.Rewards.CompleteScheduleItem).Methods(http.MethodPost)

	// Catalog and redemptions
	api.HandleFunc("/children/{childId}/catalog", rt.Redemptions.ListCatalog).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/catalog", rt.Redemptions.CreateCatalogItem).Methods(http.MethodPost)
	api.HandleFunc("/catalog/{id}", rt.Redemptions.UpdateCatalogItem).Methods(http.MethodPut)
	api.HandleFunc("/catalog/{id}/deactivate", rt.Redemptions.DeactivateCatalogItem).Methods(http.MethodPost)
	api.HandleFunc("/children/{childId}/redemptions", rt.Redemptions.List).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/redemptions", rt.Redemptions.Request).Methods(http.MethodPost)
	api.HandleFunc("/redemptions/{id}/resolve", rt.Redemptions.Resolve).Methods(http.MethodPost)
	api.HandleFunc("/redemptions/{id}/complete", rt.Redemptions.Complete).Methods(http.MethodPost)

	// Medication
	api.HandleFunc("/children/{childId}/reminders", rt.Medication.ListReminders).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/reminders", rt.Medication.CreateReminder).Methods(http.MethodPost)
	api.HandleFunc("/reminders/{id}", rt.Medication.GetReminder).Methods(http.MethodGet)
	api.HandleFunc("/reminders/{id}", rt.Medication.UpdateReminder).Methods(http.MethodPut)
	api.HandleFunc("/reminders/{id}/deactivate", rt.Medication.DeactivateReminder).Methods(http.MethodPost)
	api.HandleFunc("/children/{childId}/medication/settings", rt.Medication.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/children/{childId}/medication/settings", rt.Medication.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/children/{childId}/doses", rt.Medication.ListDoses).Methods(http.MethodGet)
	api.HandleFunc("/doses/{id}/mark", rt.Medication.MarkDose).Methods(http.MethodPost)
	api.HandleFunc("/children/{childId}/adherence", rt.Medication.Adherence).Methods(http.MethodGet)

	// Notifications
	api.HandleFunc("/children/{childId}/events", rt.Notifications.RecordChildEvent).Methods(http.MethodPost)
	api.HandleFunc("/notifications", rt.Notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", rt.Notifications.UnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", rt.Notifications.MarkRead).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return Logging(c.Handler(r))
}
