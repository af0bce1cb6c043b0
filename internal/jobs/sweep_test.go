package jobs

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/lock"
	"focusquest/internal/models"
	"focusquest/internal/points"
	"focusquest/internal/repository"
	"focusquest/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []service.Event
}

func (n *recordingNotifier) Dispatch(_ context.Context, ev service.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) count(typ models.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.Type == typ {
			c++
		}
	}
	return c
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []service.PushMessage
}

func (p *recordingPublisher) Publish(_ string, msg service.PushMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []string
}

func (e *fakeEmail) SendMissedDoseAlert(_ context.Context, toEmail, _, _, medication string, _ time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, toEmail+":"+medication)
	return nil
}

type sweepFixture struct {
	ctx        context.Context
	now        time.Time
	notifier   *recordingNotifier
	publisher  *recordingPublisher
	email      *fakeEmail
	ledger     *service.LedgerService
	medication *service.MedicationService
	sweep      *AdherenceSweep
	parent     models.Actor
	childID    string
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	f := &sweepFixture{
		ctx:       context.Background(),
		now:       time.Date(2026, 10, 19, 7, 0, 0, 0, loc),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		email:     &fakeEmail{},
		parent:    models.Actor{ID: "parent-1", Role: models.RoleParent},
	}
	calendar := &points.Calendar{Location: loc, Now: func() time.Time { return f.now }}

	family := service.NewFamilyService(repository.NewFamilyRepository(db))
	f.ledger = service.NewLedgerService(db, repository.NewRewardRepository(db), family, lock.NewKeyedMutex(), calendar,
		service.PointValues{LevelSize: 100, ScheduleCompletion: 5, MedicineTaken: 10}, f.notifier)
	f.medication = service.NewMedicationService(repository.NewMedicationRepository(db), repository.NewDoseLogRepository(db),
		repository.NewSettingsRepository(db), family, f.ledger, f.notifier, calendar)
	f.sweep = NewAdherenceSweep(f.medication, family, f.notifier, f.publisher, f.email, calendar, 4)

	_, err = family.UpsertParent(f.ctx, f.parent, "Lan", "lan@example.com")
	require.NoError(t, err)
	child, err := family.CreateChild(f.ctx, f.parent, "Minh")
	require.NoError(t, err)
	f.childID = child.ID
	return f
}

func (f *sweepFixture) at(hour, min int) time.Time {
	f.now = time.Date(2026, 10, 19, hour, min, 0, 0, f.now.Location())
	return f.now
}

func (f *sweepFixture) reminder(t *testing.T, times ...string) *models.MedicationReminder {
	t.Helper()
	rem, err := f.medication.CreateReminder(f.ctx, f.parent, f.childID, service.ReminderInput{
		MedicationName: "Ritalin", Dosage: "10mg", Frequency: "daily", Times: times, StartDate: "2026-10-01",
	})
	require.NoError(t, err)
	return rem
}

func TestSweepCreatesDoseOnceAndAwardsOnce(t *testing.T) {
	f := newSweepFixture(t)
	f.reminder(t, "08:00")

	res, err := f.sweep.Run(f.ctx, f.at(7, 50))
	require.NoError(t, err)
	assert.Equal(t, 0, res.DosesCreated)

	res, err = f.sweep.Run(f.ctx, f.at(7, 56))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reminders)
	assert.Equal(t, 1, res.DosesCreated)

	res, err = f.sweep.Run(f.ctx, f.at(7, 58))
	require.NoError(t, err)
	assert.Equal(t, 0, res.DosesCreated)

	assert.Equal(t, 1, f.notifier.count(models.NotifyMedicineDue))
	assert.Equal(t, 1, f.publisher.len())

	doses, err := f.medication.ListDoses(f.ctx, f.parent, f.childID, "", "")
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, models.DosePending, doses[0].Status)
	assert.Equal(t, models.RoleSystem, doses[0].ReportedBy)

	f.at(8, 2)
	_, err = f.medication.MarkDose(f.ctx, f.parent, doses[0].ID, models.DoseTaken, "")
	require.NoError(t, err)
	_, err = f.medication.MarkDose(f.ctx, f.parent, doses[0].ID, models.DoseTaken, "")
	require.NoError(t, err)

	profile, err := f.ledger.GetProfile(f.ctx, f.childID)
	require.NoError(t, err)
	assert.Equal(t, 10, profile.CurrentPoints)
	assert.Equal(t, 1, profile.DailyBadges)
}

func TestSweepMissedDoseAlertsOnce(t *testing.T) {
	f := newSweepFixture(t)
	f.reminder(t, "08:00")

	_, err := f.sweep.Run(f.ctx, f.at(7, 57))
	require.NoError(t, err)

	res, err := f.sweep.Run(f.ctx, f.at(8, 20))
	require.NoError(t, err)
	assert.Equal(t, 0, res.MissedAlerts)

	res, err = f.sweep.Run(f.ctx, f.at(8, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, res.MissedAlerts)

	res, err = f.sweep.Run(f.ctx, f.at(8, 45))
	require.NoError(t, err)
	assert.Equal(t, 0, res.MissedAlerts)

	assert.Equal(t, 1, f.notifier.count(models.NotifyMedicineMissed))
	assert.Equal(t, []string{"lan@example.com:Ritalin"}, f.email.sent)

	doses, err := f.medication.ListDoses(f.ctx, f.parent, f.childID, "", "")
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, models.DosePending, doses[0].Status)
	assert.NotNil(t, doses[0].MissedAlertedAt)
}

func TestSweepIgnoresStalePendingDoses(t *testing.T) {
	f := newSweepFixture(t)
	rem := f.reminder(t, "08:00")

	today := time.Date(2026, 10, 19, 8, 0, 0, 0, f.now.Location())
	_, _, err := f.medication.EnsureDoseLog(f.ctx, rem, today.AddDate(0, 0, -3))
	require.NoError(t, err)
	_, _, err = f.medication.EnsureDoseLog(f.ctx, rem, today)
	require.NoError(t, err)

	res, err := f.sweep.Run(f.ctx, f.at(8, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, res.MissedAlerts)
	assert.Equal(t, 1, f.notifier.count(models.NotifyMedicineMissed))
}

func TestSweepAcrossMidnight(t *testing.T) {
	f := newSweepFixture(t)
	f.reminder(t, "00:02")

	res, err := f.sweep.Run(f.ctx, f.at(23, 58))
	require.NoError(t, err)
	assert.Equal(t, 1, res.DosesCreated)

	doses, err := f.medication.ListDoses(f.ctx, f.parent, f.childID, "2026-10-20", "2026-10-20")
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, "2026-10-20 00:02", doses[0].ScheduledTime.In(f.now.Location()).Format("2006-01-02 15:04"))
}

func TestSweepRespectsPushSetting(t *testing.T) {
	f := newSweepFixture(t)
	f.reminder(t, "08:00", "08:03")

	_, err := f.medication.UpdateSettings(f.ctx, f.parent, f.childID, service.SettingsInput{
		ReminderAdvanceMinutes: 5,
		MissedDoseAlertMinutes: 30,
	})
	require.NoError(t, err)

	res, err := f.sweep.Run(f.ctx, f.at(7, 59))
	require.NoError(t, err)
	assert.Equal(t, 2, res.DosesCreated)
	assert.Equal(t, 2, f.notifier.count(models.NotifyMedicineDue))
	assert.Equal(t, 0, f.publisher.len())
}

func TestSweepSkipsInactiveWindow(t *testing.T) {
	f := newSweepFixture(t)
	rem, err := f.medication.CreateReminder(f.ctx, f.parent, f.childID, service.ReminderInput{
		MedicationName: "Vitamin D", Dosage: "1 tab", Times: []string{"08:00"}, StartDate: "2026-10-20",
	})
	require.NoError(t, err)

	res, err := f.sweep.Run(f.ctx, f.at(7, 58))
	require.NoError(t, err)
	assert.Equal(t, 0, res.DosesCreated)

	_, err = f.medication.DeactivateReminder(f.ctx, f.parent, rem.ID)
	require.NoError(t, err)
	res, err = f.sweep.Run(f.ctx, f.at(7, 59))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Reminders)
}

func TestSweepCancelled(t *testing.T) {
	f := newSweepFixture(t)
	f.reminder(t, "08:00")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err := f.sweep.Run(ctx, f.at(7, 58))
	assert.Error(t, err)
}
