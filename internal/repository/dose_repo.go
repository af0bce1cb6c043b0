package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// DoseLogRepository handles per-dose log instances
type DoseLogRepository struct {
	db database.DBTX
}

// NewDoseLogRepository creates a new dose log repository
func NewDoseLogRepository(db database.DBTX) *DoseLogRepository {
	return &DoseLogRepository{db: db}
}

// IsUniqueViolation reports whether err is a duplicate-key error for the underlying dialect
func (r *DoseLogRepository) IsUniqueViolation(err error) bool {
	return r.db.GetDialect().IsUniqueViolation(err)
}

const doseColumns = `id, reminder_id, child_id, scheduled_time, taken_time, status, reported_by, notes,
	missed_alerted_at, created_at, updated_at`

func scanDose(s rowScanner) (*models.MedicationDoseLog, error) {
	d := &models.MedicationDoseLog{}
	var takenTime, alertedAt sql.NullTime
	err := s.Scan(&d.ID, &d.ReminderID, &d.ChildID, &d.ScheduledTime, &takenTime, &d.Status, &d.ReportedBy,
		&d.Notes, &alertedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ScheduledTime = d.ScheduledTime.UTC()
	d.TakenTime = timePtr(takenTime)
	d.MissedAlertedAt = timePtr(alertedAt)
	return d, nil
}

// Insert creates a dose log. A second insert for the same (reminder_id, scheduled_time)
// fails with the driver's unique violation.
func (r *DoseLogRepository) Insert(ctx context.Context, d *models.MedicationDoseLog) error {
	query := "INSERT INTO medication_dose_logs (" + doseColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, d.ID, d.ReminderID, d.ChildID, d.ScheduledTime.UTC(), nullTime(d.TakenTime),
		string(d.Status), string(d.ReportedBy), d.Notes, nullTime(d.MissedAlertedAt), d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	return err
}

// GetByID retrieves a dose log by ID
func (r *DoseLogRepository) GetByID(ctx context.Context, id string) (*models.MedicationDoseLog, error) {
	query := "SELECT " + doseColumns + " FROM medication_dose_logs WHERE id = ?"
	d, err := scanDose(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose log: %w", err)
	}
	return d, nil
}

// GetBySlot retrieves the dose log for a reminder at a scheduled instant
func (r *DoseLogRepository) GetBySlot(ctx context.Context, reminderID string, scheduled time.Time) (*models.MedicationDoseLog, error) {
	query := "SELECT " + doseColumns + " FROM medication_dose_logs WHERE reminder_id = ? AND scheduled_time = ?"
	d, err := scanDose(r.db.QueryRowContext(ctx, query, reminderID, scheduled.UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose log: %w", err)
	}
	return d, nil
}

// Transition updates status fields only if the stored status is still from
func (r *DoseLogRepository) Transition(ctx context.Context, d *models.MedicationDoseLog, from models.DoseStatus) (bool, error) {
	query := `
		UPDATE medication_dose_logs
		SET status = ?, taken_time = ?, reported_by = ?, notes = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	res, err := r.db.ExecContext(ctx, query, string(d.Status), nullTime(d.TakenTime), string(d.ReportedBy), d.Notes,
		d.UpdatedAt.UTC(), d.ID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update dose log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update dose log: %w", err)
	}
	return n == 1, nil
}

// ListByChild returns a child's doses scheduled in [from, to), oldest first
func (r *DoseLogRepository) ListByChild(ctx context.Context, childID string, from, to time.Time) ([]models.MedicationDoseLog, error) {
	query := "SELECT " + doseColumns + ` FROM medication_dose_logs
		WHERE child_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		ORDER BY scheduled_time ASC`
	return r.list(ctx, query, childID, from.UTC(), to.UTC())
}

// ListPendingUnalerted returns pending doses scheduled in [since, cutoff] that have not raised a missed alert
func (r *DoseLogRepository) ListPendingUnalerted(ctx context.Context, since, cutoff time.Time) ([]models.MedicationDoseLog, error) {
	query := "SELECT " + doseColumns + ` FROM medication_dose_logs
		WHERE status = ? AND missed_alerted_at IS NULL AND scheduled_time >= ? AND scheduled_time <= ?
		ORDER BY scheduled_time ASC`
	return r.list(ctx, query, string(models.DosePending), since.UTC(), cutoff.UTC())
}

// MarkMissedAlerted stamps the missed alert time once
func (r *DoseLogRepository) MarkMissedAlerted(ctx context.Context, id string, at time.Time) (bool, error) {
	query := "UPDATE medication_dose_logs SET missed_alerted_at = ? WHERE id = ? AND missed_alerted_at IS NULL"
	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark missed alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark missed alert: %w", err)
	}
	return n == 1, nil
}

func (r *DoseLogRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.MedicationDoseLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose logs: %w", err)
	}
	defer rows.Close()

	var doses []models.MedicationDoseLog
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dose log: %w", err)
		}
		doses = append(doses, *d)
	}
	return doses, rows.Err()
}
