package models

import "time"

// MedicationReminder is a recurring dose definition
type MedicationReminder struct {
	ID             string    `json:"id"`
	ChildID        string    `json:"childId"`
	MedicationName string    `json:"medicationName"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Times          []string  `json:"times"`
	StartDate      string    `json:"startDate"`
	EndDate        string    `json:"endDate,omitempty"`
	Notes          string    `json:"notes"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ActiveOn reports whether date (YYYY-MM-DD) falls inside the reminder's window
func (r *MedicationReminder) ActiveOn(date string) bool {
	if !r.IsActive {
		return false
	}
	if date < r.StartDate {
		return false
	}
	return r.EndDate == "" || date <= r.EndDate
}

// DoseStatus is the lifecycle state of a single dose
type DoseStatus string

const (
	DosePending DoseStatus = "pending"
	DoseTaken   DoseStatus = "taken"
	DoseMissed  DoseStatus = "missed"
	DoseDelayed DoseStatus = "delayed"
)

// Valid reports whether s is a known status
func (s DoseStatus) Valid() bool {
	switch s {
	case DosePending, DoseTaken, DoseMissed, DoseDelayed:
		return true
	}
	return false
}

// MedicationDoseLog is one scheduled occurrence of a reminder
type MedicationDoseLog struct {
	ID              string     `json:"id"`
	ReminderID      string     `json:"reminderId"`
	ChildID         string     `json:"childId"`
	ScheduledTime   time.Time  `json:"scheduledTime"`
	TakenTime       *time.Time `json:"takenTime,omitempty"`
	Status          DoseStatus `json:"status"`
	ReportedBy      Role       `json:"reportedBy"`
	Notes           string     `json:"notes"`
	MissedAlertedAt *time.Time `json:"missedAlertedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// MaxMissedDoseAlertMinutes bounds how late a missed-dose alert may be configured
const MaxMissedDoseAlertMinutes = 1440

// MedicationSettings are the per-child adherence preferences
type MedicationSettings struct {
	ChildID                   string    `json:"childId"`
	ReminderAdvanceMinutes    int       `json:"reminderAdvanceMinutes"`
	AllowChildToMarkTaken     bool      `json:"allowChildToMarkTaken"`
	RequireParentConfirmation bool      `json:"requireParentConfirmation"`
	EnableSoundAlerts         bool      `json:"enableSoundAlerts"`
	EnablePushNotifications   bool      `json:"enablePushNotifications"`
	MissedDoseAlertMinutes    int       `json:"missedDoseAlertMinutes"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

// DefaultMedicationSettings returns the settings used when a child has none stored
func DefaultMedicationSettings(childID string) MedicationSettings {
	return MedicationSettings{
		ChildID:                   childID,
		ReminderAdvanceMinutes:    5,
		AllowChildToMarkTaken:     false,
		RequireParentConfirmation: true,
		EnableSoundAlerts:         true,
		EnablePushNotifications:   true,
		MissedDoseAlertMinutes:    30,
	}
}

// DailyAdherence is one day of the adherence breakdown
type DailyAdherence struct {
	Date      string  `json:"date"`
	Scheduled int     `json:"scheduled"`
	Taken     int     `json:"taken"`
	Missed    int     `json:"missed"`
	Rate      float64 `json:"rate"`
}

// AdherenceReport aggregates dose outcomes over a window of days
type AdherenceReport struct {
	ChildID        string              `json:"childId"`
	Days           int                 `json:"days"`
	From           string              `json:"from"`
	To             string              `json:"to"`
	TotalScheduled int                 `json:"totalScheduled"`
	TotalTaken     int                 `json:"totalTaken"`
	TotalMissed    int                 `json:"totalMissed"`
	AdherenceRate  float64             `json:"adherenceRate"`
	MissedDoses    []MedicationDoseLog `json:"missedDoses"`
	Daily          []DailyAdherence    `json:"daily"`
}
