package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY constraint
	IsUniqueViolation(err error) bool

	// UpsertMedicationSettingsQuery returns an insert-or-update statement keyed on child_id
	UpsertMedicationSettingsQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

const settingsColumns = `child_id, reminder_advance_minutes, allow_child_to_mark_taken, require_parent_confirmation,
	enable_sound_alerts, enable_push_notifications, missed_dose_alert_minutes, updated_at`

// upsertOnConflict is shared by SQLite and PostgreSQL, which both accept ON CONFLICT ... excluded.
func upsertOnConflict() string {
	return `INSERT INTO medication_settings (` + settingsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (child_id) DO UPDATE SET
			reminder_advance_minutes = excluded.reminder_advance_minutes,
			allow_child_to_mark_taken = excluded.allow_child_to_mark_taken,
			require_parent_confirmation = excluded.require_parent_confirmation,
			enable_sound_alerts = excluded.enable_sound_alerts,
			enable_push_notifications = excluded.enable_push_notifications,
			missed_dose_alert_minutes = excluded.missed_dose_alert_minutes,
			updated_at = excluded.updated_at`
}
