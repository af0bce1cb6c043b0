package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// SettingsRepository handles per-child medication settings
type SettingsRepository struct {
	db database.DBTX
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a child's stored settings, or nil when none were saved
func (r *SettingsRepository) Get(ctx context.Context, childID string) (*models.MedicationSettings, error) {
	query := `
		SELECT child_id, reminder_advance_minutes, allow_child_to_mark_taken, require_parent_confirmation,
			enable_sound_alerts, enable_push_notifications, missed_dose_alert_minutes, updated_at
		FROM medication_settings WHERE child_id = ?
	`
	s := &models.MedicationSettings{}
	err := r.db.QueryRowContext(ctx, query, childID).Scan(
		&s.ChildID,
		&s.ReminderAdvanceMinutes,
		&s.AllowChildToMarkTaken,
		&s.RequireParentConfirmation,
		&s.EnableSoundAlerts,
		&s.EnablePushNotifications,
		&s.MissedDoseAlertMinutes,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication settings: %w", err)
	}
	return s, nil
}

// Upsert inserts or replaces a child's settings
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.MedicationSettings) error {
	query := r.db.GetDialect().UpsertMedicationSettingsQuery()
	_, err := r.db.ExecContext(ctx, query, s.ChildID, s.ReminderAdvanceMinutes, s.AllowChildToMarkTaken,
		s.RequireParentConfirmation, s.EnableSoundAlerts, s.EnablePushNotifications, s.MissedDoseAlertMinutes,
		s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save medication settings: %w", err)
	}
	return nil
}
