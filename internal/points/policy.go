package points

import (
	"fmt"

	"focusquest/internal/models"
)

// Level maps cumulative earned points to a level and the threshold of the next one
func Level(totalEarned, levelSize int) (level, nextLevelPoints int) {
	if totalEarned < 0 {
		totalEarned = 0
	}
	level = totalEarned/levelSize + 1
	return level, level * levelSize
}

// NewProfile returns a zeroed profile at level 1
func NewProfile(childID string, levelSize int, today string) *models.ChildRewardProfile {
	level, next := Level(0, levelSize)
	return &models.ChildRewardProfile{
		ChildID:         childID,
		Level:           level,
		NextLevelPoints: next,
		LastResetDate:   today,
		Achievements:    []string{},
	}
}

// ApplyReset zeroes the daily counters when the stored reset date is not today.
// It returns true when a reset happened.
func ApplyReset(p *models.ChildRewardProfile, today string) bool {
	if p.LastResetDate == today {
		return false
	}
	p.DailyStickers = 0
	p.DailyBadges = 0
	p.LastResetDate = today
	return true
}

// ApplyAward adds an event to the profile. ApplyReset must run first.
// It returns the new level when the award crossed a level threshold, otherwise 0.
func ApplyAward(p *models.ChildRewardProfile, ev *models.RewardEvent, levelSize int, today, yesterday string) int {
	p.TotalPointsEarned += ev.Points
	p.CurrentPoints += ev.Points

	switch ev.Category {
	case models.CategoryScheduleCompletion:
		p.DailyStickers++
	case models.CategoryMedicineTaken:
		p.DailyBadges++
	}

	switch p.LastActivityDate {
	case today:
	case yesterday:
		p.StreakDays++
	default:
		p.StreakDays = 1
	}
	p.LastActivityDate = today

	level, next := Level(p.TotalPointsEarned, levelSize)
	p.NextLevelPoints = next
	if level <= p.Level {
		return 0
	}
	p.Level = level
	p.Achievements = append(p.Achievements, fmt.Sprintf("Reached level %d", level))
	return level
}

// Stars converts daily counters into the star count shown to the child
func Stars(stickers, badges int) int {
	return stickers*5 + badges*10
}

// Summarize builds the daily summary for a profile already reset to today
func Summarize(p *models.ChildRewardProfile) models.DailySummary {
	return models.DailySummary{
		Date:     p.LastResetDate,
		Stickers: p.DailyStickers,
		Badges:   p.DailyBadges,
		Stars:    Stars(p.DailyStickers, p.DailyBadges),
	}
}
