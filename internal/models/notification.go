package models

import "time"

// NotificationType names a domain event delivered to a parent
type NotificationType string

const (
	NotifyScheduleCompleted  NotificationType = "schedule_completed"
	NotifyMedicineTaken      NotificationType = "medicine_taken"
	NotifyMedicineDue        NotificationType = "medicine_due"
	NotifyMedicineMissed     NotificationType = "medicine_missed"
	NotifyBreakTaken         NotificationType = "break_taken"
	NotifyChildLogin         NotificationType = "child_login"
	NotifyChildLogout        NotificationType = "child_logout"
	NotifyRedemptionRequest  NotificationType = "redemption_requested"
	NotifyRedemptionResolved NotificationType = "redemption_resolved"
	NotifyLevelUp            NotificationType = "level_up"
)

// Notification is an entry in a parent's inbox
type Notification struct {
	ID         int64            `json:"id"`
	UserID     string           `json:"userId"`
	ChildID    string           `json:"childId,omitempty"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	ActivityID string           `json:"activityId,omitempty"`
	Read       bool             `json:"read"`
	CreatedAt  time.Time        `json:"createdAt"`
}
