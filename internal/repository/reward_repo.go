package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// RewardRepository handles reward events and the derived child profiles
type RewardRepository struct {
	db database.DBTX
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db database.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RewardRepository) WithTx(tx database.DBTX) *RewardRepository {
	return &RewardRepository{db: tx}
}

// IsUniqueViolation reports whether err is a duplicate-key error for the underlying dialect
func (r *RewardRepository) IsUniqueViolation(err error) bool {
	return r.db.GetDialect().IsUniqueViolation(err)
}

const eventColumns = "id, child_id, points, reason, category, source_id, earned_at"

func scanEvent(s rowScanner) (*models.RewardEvent, error) {
	ev := &models.RewardEvent{}
	var sourceID sql.NullString
	if err := s.Scan(&ev.ID, &ev.ChildID, &ev.Points, &ev.Reason, &ev.Category, &sourceID, &ev.EarnedAt); err != nil {
		return nil, err
	}
	ev.SourceID = sourceID.String
	ev.EarnedAt = ev.EarnedAt.UTC()
	return ev, nil
}

// InsertEvent appends an event. A duplicate (category, source_id) surfaces as the driver's unique violation.
func (r *RewardRepository) InsertEvent(ctx context.Context, ev *models.RewardEvent) error {
	query := "INSERT INTO reward_events (" + eventColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.ChildID, ev.Points, ev.Reason, string(ev.Category), nullString(ev.SourceID), ev.EarnedAt.UTC())
	return err
}

// GetEventBySource finds the event recorded for a (category, sourceID) pair
func (r *RewardRepository) GetEventBySource(ctx context.Context, category models.RewardCategory, sourceID string) (*models.RewardEvent, error) {
	query := "SELECT " + eventColumns + " FROM reward_events WHERE category = ? AND source_id = ?"
	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, string(category), sourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward event: %w", err)
	}
	return ev, nil
}

// ListEvents returns a child's events newest first, earned at or after since
func (r *RewardRepository) ListEvents(ctx context.Context, childID string, since time.Time, limit int) ([]models.RewardEvent, error) {
	query := "SELECT " + eventColumns + " FROM reward_events WHERE child_id = ? AND earned_at >= ? ORDER BY earned_at DESC"
	args := []interface{}{childID, since.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reward events: %w", err)
	}
	defer rows.Close()

	var events []models.RewardEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

const profileColumns = `child_id, current_points, total_points_earned, total_points_spent, level, next_level_points,
	streak_days, daily_stickers, daily_badges, last_reset_date, last_activity_date, achievements, updated_at`

// GetProfile retrieves a child's profile
func (r *RewardRepository) GetProfile(ctx context.Context, childID string) (*models.ChildRewardProfile, error) {
	query := "SELECT " + profileColumns + " FROM reward_profiles WHERE child_id = ?"
	p := &models.ChildRewardProfile{}
	var achievements string
	err := r.db.QueryRowContext(ctx, query, childID).Scan(
		&p.ChildID,
		&p.CurrentPoints,
		&p.TotalPointsEarned,
		&p.TotalPointsSpent,
		&p.Level,
		&p.NextLevelPoints,
		&p.StreakDays,
		&p.DailyStickers,
		&p.DailyBadges,
		&p.LastResetDate,
		&p.LastActivityDate,
		&achievements,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward profile: %w", err)
	}

	if err := json.Unmarshal([]byte(achievements), &p.Achievements); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// InsertProfile creates a profile row
func (r *RewardRepository) InsertProfile(ctx context.Context, p *models.ChildRewardProfile) error {
	achievements, err := encodeAchievements(p.Achievements)
	if err != nil {
		return err
	}
	query := "INSERT INTO reward_profiles (" + profileColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err = r.db.ExecContext(ctx, query,
		p.ChildID, p.CurrentPoints, p.TotalPointsEarned, p.TotalPointsSpent, p.Level, p.NextLevelPoints,
		p.StreakDays, p.DailyStickers, p.DailyBadges, p.LastResetDate, p.LastActivityDate, achievements, p.UpdatedAt.UTC())
	return err
}

// UpdateProfile persists every mutable field of a profile
func (r *RewardRepository) UpdateProfile(ctx context.Context, p *models.ChildRewardProfile) error {
	achievements, err := encodeAchievements(p.Achievements)
	if err != nil {
		return err
	}
	query := `
		UPDATE reward_profiles SET
			current_points = ?, total_points_earned = ?, total_points_spent = ?, level = ?, next_level_points = ?,
			streak_days = ?, daily_stickers = ?, daily_badges = ?, last_reset_date = ?, last_activity_date = ?,
			achievements = ?, updated_at = ?
		WHERE child_id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		p.CurrentPoints, p.TotalPointsEarned, p.TotalPointsSpent, p.Level, p.NextLevelPoints,
		p.StreakDays, p.DailyStickers, p.DailyBadges, p.LastResetDate, p.LastActivityDate,
		achievements, p.UpdatedAt.UTC(), p.ChildID)
	if err != nil {
		return fmt.Errorf("failed to update reward profile: %w", err)
	}
	return nil
}

func encodeAchievements(a []string) (string, error) {
	if a == nil {
		a = []string{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode achievements: %w", err)
	}
	return string(b), nil
}
