package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}

func seedChild(t *testing.T, db *database.DB) (*models.Parent, *models.Child) {
	t.Helper()
	ctx := context.Background()
	repo := NewFamilyRepository(db)
	now := time.Now().UTC()

	parent := &models.Parent{ID: "p1", Name: "Lan", Email: "lan@example.com", CreatedAt: now}
	require.NoError(t, repo.CreateParent(ctx, parent))
	child := &models.Child{ID: "c1", ParentID: parent.ID, Name: "Minh", CreatedAt: now}
	require.NoError(t, repo.CreateChild(ctx, child))
	return parent, child
}

func TestDoseLogSlotIsUnique(t *testing.T) {
	db := setupDB(t)
	_, child := seedChild(t, db)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)

	reminders := NewMedicationRepository(db)
	rem := &models.MedicationReminder{
		ID: "r1", ChildID: child.ID, MedicationName: "Ritalin", Dosage: "10mg",
		Times: []string{"08:00", "20:00"}, StartDate: "2026-10-01", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, reminders.Create(ctx, rem))

	got, err := reminders.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "20:00"}, got.Times)
	assert.Empty(t, got.EndDate)

	doses := NewDoseLogRepository(db)
	dose := func(id string) *models.MedicationDoseLog {
		return &models.MedicationDoseLog{
			ID: id, ReminderID: rem.ID, ChildID: child.ID, ScheduledTime: now,
			Status: models.DosePending, ReportedBy: models.RoleSystem, CreatedAt: now, UpdatedAt: now,
		}
	}
	require.NoError(t, doses.Insert(ctx, dose("d1")))

	err = doses.Insert(ctx, dose("d2"))
	require.Error(t, err)
	assert.True(t, doses.IsUniqueViolation(err))

	slot, err := doses.GetBySlot(ctx, rem.ID, now)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "d1", slot.ID)
	assert.True(t, slot.ScheduledTime.Equal(now))
}

func TestRewardEventSourceIsUnique(t *testing.T) {
	db := setupDB(t)
	_, child := seedChild(t, db)
	ctx := context.Background()
	repo := NewRewardRepository(db)
	now := time.Now().UTC()

	ev := &models.RewardEvent{ID: "e1", ChildID: child.ID, Points: 5, Category: models.CategoryScheduleCompletion, SourceID: "item-1", EarnedAt: now}
	require.NoError(t, repo.InsertEvent(ctx, ev))

	dup := *ev
	dup.ID = "e2"
	err := repo.InsertEvent(ctx, &dup)
	require.Error(t, err)
	assert.True(t, repo.IsUniqueViolation(err))

	// Events without a source never collide
	for _, id := range []string{"e3", "e4"} {
		require.NoError(t, repo.InsertEvent(ctx, &models.RewardEvent{ID: id, ChildID: child.ID, Points: 5, Category: models.CategoryBonus, EarnedAt: now}))
	}

	found, err := repo.GetEventBySource(ctx, models.CategoryScheduleCompletion, "item-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "e1", found.ID)
}

func TestSettingsUpsert(t *testing.T) {
	db := setupDB(t)
	_, child := seedChild(t, db)
	ctx := context.Background()
	repo := NewSettingsRepository(db)

	got, err := repo.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := models.DefaultMedicationSettings(child.ID)
	s.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &s))

	s.AllowChildToMarkTaken = true
	s.ReminderAdvanceMinutes = 15
	require.NoError(t, repo.Upsert(ctx, &s))

	got, err = repo.Get(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.AllowChildToMarkTaken)
	assert.Equal(t, 15, got.ReminderAdvanceMinutes)
	assert.True(t, got.RequireParentConfirmation)
}

func TestNotificationLifecycle(t *testing.T) {
	db := setupDB(t)
	parent, child := seedChild(t, db)
	ctx := context.Background()
	repo := NewNotificationRepository(db)
	old := time.Now().UTC().Add(-48 * time.Hour)

	n := &models.Notification{UserID: parent.ID, ChildID: child.ID, Type: models.NotifyChildLogin, Title: "Login", Message: "Minh logged in", CreatedAt: old}
	require.NoError(t, repo.Create(ctx, n))
	assert.NotZero(t, n.ID)

	count, err := repo.CountUnread(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.MarkRead(ctx, n.ID))
	deleted, err := repo.DeleteReadBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestListPendingUnalertedWindow(t *testing.T) {
	db := setupDB(t)
	_, child := seedChild(t, db)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)

	reminders := NewMedicationRepository(db)
	rem := &models.MedicationReminder{
		ID: "r1", ChildID: child.ID, MedicationName: "Ritalin", Dosage: "10mg",
		Times: []string{"08:00"}, StartDate: "2026-10-01", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, reminders.Create(ctx, rem))

	doses := NewDoseLogRepository(db)
	for id, at := range map[string]time.Time{
		"stale":  now.Add(-72 * time.Hour),
		"recent": now.Add(-time.Hour),
		"future": now.Add(time.Hour),
	} {
		require.NoError(t, doses.Insert(ctx, &models.MedicationDoseLog{
			ID: id, ReminderID: rem.ID, ChildID: child.ID, ScheduledTime: at,
			Status: models.DosePending, ReportedBy: models.RoleSystem, CreatedAt: now, UpdatedAt: now,
		}))
	}

	got, err := doses.ListPendingUnalerted(ctx, now.Add(-48*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)

	stamped, err := doses.MarkMissedAlerted(ctx, "recent", now)
	require.NoError(t, err)
	assert.True(t, stamped)

	got, err = doses.ListPendingUnalerted(ctx, now.Add(-48*time.Hour), now)
	require.NoError(t, err)
	assert.Empty(t, got)
}
