package models

import "time"

// RewardCategory classifies why points were awarded
type RewardCategory string

const (
	CategoryScheduleCompletion  RewardCategory = "schedule_completion"
	CategoryMedicineTaken       RewardCategory = "medicine_taken"
	CategoryFocusImprovement    RewardCategory = "focus_improvement"
	CategoryBehaviorImprovement RewardCategory = "behavior_improvement"
	CategoryBonus               RewardCategory = "bonus"
)

// Valid reports whether c is a known category
func (c RewardCategory) Valid() bool {
	switch c {
	case CategoryScheduleCompletion, CategoryMedicineTaken, CategoryFocusImprovement,
		CategoryBehaviorImprovement, CategoryBonus:
		return true
	}
	return false
}

// RewardEvent is an immutable ledger entry
type RewardEvent struct {
	ID       string         `json:"id"`
	ChildID  string         `json:"childId"`
	Points   int            `json:"points"`
	Reason   string         `json:"reason"`
	Category RewardCategory `json:"category"`
	SourceID string         `json:"sourceId,omitempty"`
	EarnedAt time.Time      `json:"earnedAt"`
}

// ChildRewardProfile is the derived balance and progress of one child.
// Dates are calendar days (YYYY-MM-DD) in the configured timezone.
type ChildRewardProfile struct {
	ChildID           string    `json:"childId"`
	CurrentPoints     int       `json:"currentPoints"`
	TotalPointsEarned int       `json:"totalPointsEarned"`
	TotalPointsSpent  int       `json:"totalPointsSpent"`
	Level             int       `json:"level"`
	NextLevelPoints   int       `json:"nextLevelPoints"`
	StreakDays        int       `json:"streakDays"`
	DailyStickers     int       `json:"dailyStickers"`
	DailyBadges       int       `json:"dailyBadges"`
	LastResetDate     string    `json:"lastResetDate"`
	LastActivityDate  string    `json:"lastActivityDate"`
	Achievements      []string  `json:"achievements"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// DailySummary is the per-day view shown to the child
type DailySummary struct {
	Date     string `json:"date"`
	Stickers int    `json:"stickers"`
	Badges   int    `json:"badges"`
	Stars    int    `json:"stars"`
}

// WeeklySummary totals points since the start of the current week
type WeeklySummary struct {
	WeekStart  string                 `json:"weekStart"`
	Total      int                    `json:"total"`
	ByCategory map[RewardCategory]int `json:"byCategory"`
	EventCount int                    `json:"eventCount"`
}
