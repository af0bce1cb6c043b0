package points

import (
	"testing"

	"focusquest/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		total     int
		wantLevel int
		wantNext  int
	}{
		{total: 0, wantLevel: 1, wantNext: 100},
		{total: 99, wantLevel: 1, wantNext: 100},
		{total: 100, wantLevel: 2, wantNext: 200},
		{total: 250, wantLevel: 3, wantNext: 300},
		{total: -5, wantLevel: 1, wantNext: 100},
	}

	for _, tt := range tests {
		level, next := Level(tt.total, 100)
		assert.Equal(t, tt.wantLevel, level, "Level(%d)", tt.total)
		assert.Equal(t, tt.wantNext, next, "next threshold for %d", tt.total)
	}
}

func TestLevelMonotonic(t *testing.T) {
	p := NewProfile("c1", 100, "2026-10-19")
	prev := p.Level
	for i := 0; i < 60; i++ {
		ev := &models.RewardEvent{Points: 7, Category: models.CategoryBonus}
		ApplyAward(p, ev, 100, "2026-10-19", "2026-10-18")
		assert.GreaterOrEqual(t, p.Level, prev)
		assert.Greater(t, p.NextLevelPoints, p.TotalPointsEarned)
		prev = p.Level
	}
	assert.Equal(t, 420, p.TotalPointsEarned)
	assert.Equal(t, 5, p.Level)
	assert.Len(t, p.Achievements, 4)
	assert.Equal(t, "Reached level 5", p.Achievements[3])
}

func TestApplyReset(t *testing.T) {
	p := &models.ChildRewardProfile{DailyStickers: 3, DailyBadges: 2, LastResetDate: "2026-10-18"}

	assert.True(t, ApplyReset(p, "2026-10-19"))
	assert.Equal(t, 0, p.DailyStickers)
	assert.Equal(t, 0, p.DailyBadges)
	assert.Equal(t, "2026-10-19", p.LastResetDate)

	p.DailyStickers = 1
	assert.False(t, ApplyReset(p, "2026-10-19"))
	assert.Equal(t, 1, p.DailyStickers)
}

func TestApplyAwardCounters(t *testing.T) {
	p := NewProfile("c1", 100, "2026-10-19")

	ApplyAward(p, &models.RewardEvent{Points: 5, Category: models.CategoryScheduleCompletion}, 100, "2026-10-19", "2026-10-18")
	ApplyAward(p, &models.RewardEvent{Points: 10, Category: models.CategoryMedicineTaken}, 100, "2026-10-19", "2026-10-18")
	ApplyAward(p, &models.RewardEvent{Points: 5, Category: models.CategoryBonus}, 100, "2026-10-19", "2026-10-18")

	assert.Equal(t, 1, p.DailyStickers)
	assert.Equal(t, 1, p.DailyBadges)
	assert.Equal(t, 20, p.CurrentPoints)
	assert.Equal(t, 15, Summarize(p).Stars)
	assert.Equal(t, 1, p.StreakDays)
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name         string
		lastActivity string
		streak       int
		want         int
	}{
		{name: "first activity", lastActivity: "", streak: 0, want: 1},
		{name: "same day", lastActivity: "2026-10-19", streak: 4, want: 4},
		{name: "consecutive day", lastActivity: "2026-10-18", streak: 4, want: 5},
		{name: "gap resets", lastActivity: "2026-10-15", streak: 4, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfile("c1", 100, "2026-10-19")
			p.LastActivityDate = tt.lastActivity
			p.StreakDays = tt.streak
			ApplyAward(p, &models.RewardEvent{Points: 5, Category: models.CategoryBonus}, 100, "2026-10-19", "2026-10-18")
			assert.Equal(t, tt.want, p.StreakDays)
			assert.Equal(t, "2026-10-19", p.LastActivityDate)
		})
	}
}
