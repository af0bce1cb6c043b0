package service

import (
	"context"
	"errors"
	"fmt"

	"focusquest/internal/database"
	"focusquest/internal/lock"
	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/points"
	"focusquest/internal/repository"
	"focusquest/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PointValues are the configurable point amounts and leveling size
type PointValues struct {
	LevelSize          int
	ScheduleCompletion int
	MedicineTaken      int
}

// AwardRequest describes points to add to a child's ledger
type AwardRequest struct {
	ChildID  string
	Points   int
	Reason   string
	Category models.RewardCategory
	// SourceID makes the award idempotent per (Category, SourceID)
	SourceID string
}

// LedgerService owns reward events and the derived child profiles
type LedgerService struct {
	db       *database.DB
	rewards  *repository.RewardRepository
	family   *FamilyService
	locker   lock.Locker
	calendar *points.Calendar
	values   PointValues
	notifier Notifier
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *database.DB, rewards *repository.RewardRepository, family *FamilyService, locker lock.Locker,
	calendar *points.Calendar, values PointValues, notifier Notifier) *LedgerService {
	return &LedgerService{
		db:       db,
		rewards:  rewards,
		family:   family,
		locker:   locker,
		calendar: calendar,
		values:   values,
		notifier: notifier,
	}
}

// Values returns the configured point amounts
func (s *LedgerService) Values() PointValues {
	return s.values
}

// AwardPoints appends an event and updates the profile. When req.SourceID was already
// awarded under the same category, the existing event is returned with created=false.
func (s *LedgerService) AwardPoints(ctx context.Context, req AwardRequest) (*models.RewardEvent, bool, error) {
	if err := validation.ValidatePositive("points", req.Points); err != nil {
		return nil, false, err
	}
	if !req.Category.Valid() {
		return nil, false, validation.ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", req.Category)}
	}
	if _, err := s.family.GetChild(ctx, req.ChildID); err != nil {
		return nil, false, err
	}

	if req.SourceID != "" {
		existing, err := s.rewards.GetEventBySource(ctx, req.Category, req.SourceID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	now := s.calendar.Now()
	today, yesterday := s.calendar.DateOf(now), s.calendar.DayBefore(now)
	ev := &models.RewardEvent{
		ID:       uuid.NewString(),
		ChildID:  req.ChildID,
		Points:   req.Points,
		Reason:   req.Reason,
		Category: req.Category,
		SourceID: req.SourceID,
		EarnedAt: now.UTC(),
	}

	var newLevel int
	profile, err := s.withProfile(ctx, req.ChildID, today, func(rewards *repository.RewardRepository, _ *database.Tx, p *models.ChildRewardProfile) error {
		if err := rewards.InsertEvent(ctx, ev); err != nil {
			if rewards.IsUniqueViolation(err) {
				return errDuplicateEvent
			}
			return fmt.Errorf("failed to insert reward event: %w", err)
		}
		newLevel = points.ApplyAward(p, ev, s.values.LevelSize, today, yesterday)
		return nil
	})
	if errors.Is(err, errDuplicateEvent) {
		existing, getErr := s.rewards.GetEventBySource(ctx, req.Category, req.SourceID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	logger.Log.WithFields(logrus.Fields{
		"child_id": req.ChildID,
		"points":   req.Points,
		"category": req.Category,
		"balance":  profile.CurrentPoints,
	}).Info("points awarded")

	if newLevel > 0 {
		s.notifier.Dispatch(ctx, Event{
			ChildID:    req.ChildID,
			Type:       models.NotifyLevelUp,
			Title:      "Level up",
			Message:    fmt.Sprintf("Reached level %d", newLevel),
			ActivityID: ev.ID,
		})
	}
	return ev, true, nil
}

// withProfile runs fn in the child's critical section and a transaction, with the
// profile loaded (or created), reset for today, and saved afterwards.
func (s *LedgerService) withProfile(ctx context.Context, childID, today string,
	fn func(rewards *repository.RewardRepository, tx *database.Tx, p *models.ChildRewardProfile) error) (*models.ChildRewardProfile, error) {
	unlock, err := s.locker.Lock(ctx, "child:"+childID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock child %s: %w", childID, err)
	}
	defer unlock()

	var profile *models.ChildRewardProfile
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		rewards := s.rewards.WithTx(tx)

		p, err := rewards.GetProfile(ctx, childID)
		if err != nil {
			return err
		}
		created := p == nil
		if created {
			p = points.NewProfile(childID, s.values.LevelSize, today)
		}
		points.ApplyReset(p, today)

		if err := fn(rewards, tx, p); err != nil {
			return err
		}

		p.UpdatedAt = s.calendar.Now().UTC()
		if created {
			if err := rewards.InsertProfile(ctx, p); err != nil {
				return fmt.Errorf("failed to create reward profile: %w", err)
			}
		} else if err := rewards.UpdateProfile(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile returns the child's profile, creating a zeroed one on first access.
// Daily counters in the returned view are reset when the stored date is stale.
func (s *LedgerService) GetProfile(ctx context.Context, childID string) (*models.ChildRewardProfile, error) {
	if _, err := s.family.GetChild(ctx, childID); err != nil {
		return nil, err
	}

	today := s.calendar.Today()
	p, err := s.rewards.GetProfile(ctx, childID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		points.ApplyReset(p, today)
		return p, nil
	}

	return s.withProfile(ctx, childID, today, func(*repository.RewardRepository, *database.Tx, *models.ChildRewardProfile) error {
		return nil
	})
}

// DailySummary returns today's stickers, badges and stars
func (s *LedgerService) DailySummary(ctx context.Context, childID string) (models.DailySummary, error) {
	p, err := s.GetProfile(ctx, childID)
	if err != nil {
		return models.DailySummary{}, err
	}
	return points.Summarize(p), nil
}

// WeeklySummary totals points earned since Monday 00:00 in the configured timezone
func (s *LedgerService) WeeklySummary(ctx context.Context, childID string) (models.WeeklySummary, error) {
	if _, err := s.family.GetChild(ctx, childID); err != nil {
		return models.WeeklySummary{}, err
	}

	start := s.calendar.WeekStart(s.calendar.Now())
	events, err := s.rewards.ListEvents(ctx, childID, start, 0)
	if err != nil {
		return models.WeeklySummary{}, err
	}

	summary := models.WeeklySummary{
		WeekStart:  start.Format(points.DateLayout),
		ByCategory: make(map[models.RewardCategory]int),
		EventCount: len(events),
	}
	for _, ev := range events {
		summary.Total += ev.Points
		summary.ByCategory[ev.Category] += ev.Points
	}
	return summary, nil
}

// ListEvents returns the child's most recent events
func (s *LedgerService) ListEvents(ctx context.Context, childID string, limit int) ([]models.RewardEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.rewards.ListEvents(ctx, childID, s.calendar.Now().AddDate(-10, 0, 0), limit)
}

// CompleteScheduleItem awards the schedule-completion points once per item
func (s *LedgerService) CompleteScheduleItem(ctx context.Context, childID, itemID, title string) (*models.RewardEvent, bool, error) {
	if itemID == "" {
		return nil, false, validation.ValidationError{Field: "itemId", Message: "itemId is required"}
	}
	reason := "Completed schedule item"
	if title != "" {
		reason = "Completed: " + title
	}

	ev, created, err := s.AwardPoints(ctx, AwardRequest{
		ChildID:  childID,
		Points:   s.values.ScheduleCompletion,
		Reason:   reason,
		Category: models.CategoryScheduleCompletion,
		SourceID: itemID,
	})
	if err != nil || !created {
		return ev, created, err
	}

	s.notifier.Dispatch(ctx, Event{
		ChildID:    childID,
		Type:       models.NotifyScheduleCompleted,
		Title:      "Schedule item completed",
		Message:    fmt.Sprintf("%s (+%d points)", reason, ev.Points),
		ActivityID: itemID,
	})
	return ev, true, nil
}

// AwardBonus lets a parent grant encouragement points outside the automatic rules
func (s *LedgerService) AwardBonus(ctx context.Context, actor models.Actor, childID string, amount int, reason string, category models.RewardCategory, sourceID string) (*models.RewardEvent, bool, error) {
	if _, err := s.family.RequireParentOf(ctx, actor, childID); err != nil {
		return nil, false, err
	}
	if category == "" {
		category = models.CategoryBonus
	}
	switch category {
	case models.CategoryBonus, models.CategoryBehaviorImprovement, models.CategoryFocusImprovement:
	default:
		return nil, false, validation.ValidationError{Field: "category", Message: "only bonus, behavior_improvement or focus_improvement can be awarded manually"}
	}
	return s.AwardPoints(ctx, AwardRequest{ChildID: childID, Points: amount, Reason: reason, Category: category, SourceID: sourceID})
}
