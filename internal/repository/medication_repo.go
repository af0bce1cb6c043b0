package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// MedicationRepository handles medication reminders
type MedicationRepository struct {
	db database.DBTX
}

// NewMedicationRepository creates a new medication repository
func NewMedicationRepository(db database.DBTX) *MedicationRepository {
	return &MedicationRepository{db: db}
}

const reminderColumns = `id, child_id, medication_name, dosage, frequency, times, start_date, end_date, notes,
	is_active, created_at, updated_at`

func scanReminder(s rowScanner) (*models.MedicationReminder, error) {
	rem := &models.MedicationReminder{}
	var (
		times   string
		endDate sql.NullString
	)
	err := s.Scan(&rem.ID, &rem.ChildID, &rem.MedicationName, &rem.Dosage, &rem.Frequency, &times,
		&rem.StartDate, &endDate, &rem.Notes, &rem.IsActive, &rem.CreatedAt, &rem.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rem.Times = splitTimes(times)
	rem.EndDate = endDate.String
	return rem, nil
}

// Times are stored comma separated since every dialect supports plain text
func joinTimes(times []string) string {
	return strings.Join(times, ",")
}

func splitTimes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// Create inserts a reminder
func (r *MedicationRepository) Create(ctx context.Context, rem *models.MedicationReminder) error {
	query := "INSERT INTO medication_reminders (" + reminderColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, rem.ID, rem.ChildID, rem.MedicationName, rem.Dosage, rem.Frequency,
		joinTimes(rem.Times), rem.StartDate, nullString(rem.EndDate), rem.Notes, rem.IsActive,
		rem.CreatedAt.UTC(), rem.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// GetByID retrieves a reminder by ID
func (r *MedicationRepository) GetByID(ctx context.Context, id string) (*models.MedicationReminder, error) {
	query := "SELECT " + reminderColumns + " FROM medication_reminders WHERE id = ?"
	rem, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rem, nil
}

// Update persists every mutable field of a reminder
func (r *MedicationRepository) Update(ctx context.Context, rem *models.MedicationReminder) error {
	query := `
		UPDATE medication_reminders
		SET medication_name = ?, dosage = ?, frequency = ?, times = ?, start_date = ?, end_date = ?,
			notes = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, rem.MedicationName, rem.Dosage, rem.Frequency, joinTimes(rem.Times),
		rem.StartDate, nullString(rem.EndDate), rem.Notes, rem.IsActive, rem.UpdatedAt.UTC(), rem.ID)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	return nil
}

// ListByChild lists a child's reminders, active first
func (r *MedicationRepository) ListByChild(ctx context.Context, childID string) ([]models.MedicationReminder, error) {
	query := "SELECT " + reminderColumns + " FROM medication_reminders WHERE child_id = ? ORDER BY is_active DESC, created_at ASC"
	return r.list(ctx, query, childID)
}

// ListActive lists every active reminder across all children
func (r *MedicationRepository) ListActive(ctx context.Context) ([]models.MedicationReminder, error) {
	query := "SELECT " + reminderColumns + " FROM medication_reminders WHERE is_active = ? ORDER BY child_id, created_at"
	return r.list(ctx, query, true)
}

func (r *MedicationRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.MedicationReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.MedicationReminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, *rem)
	}
	return reminders, rows.Err()
}
