package service

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

	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Dispatch(_ context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) ofType(typ models.NotificationType) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, ev := range n.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[string][]PushMessage
}

func (p *recordingPublisher) Publish(userID string, msg PushMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = make(map[string][]PushMessage)
	}
	p.sent[userID] = append(p.sent[userID], msg)
}

func (p *recordingPublisher) count(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent[userID])
}

type fixture struct {
	ctx         context.Context
	db          *database.DB
	now         time.Time
	calendar    *points.Calendar
	notifier    *recordingNotifier
	publisher   *recordingPublisher
	family      *FamilyService
	ledger      *LedgerService
	redemptions *RedemptionService
	medication  *MedicationService
	parent      models.Actor
	child       models.Actor
}

var saigon = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		panic(err)
	}
	return loc
}()

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		now:       time.Date(2026, 10, 19, 8, 0, 0, 0, saigon),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	f.calendar = &points.Calendar{Location: saigon, Now: func() time.Time { return f.now }}

	f.family = NewFamilyService(repository.NewFamilyRepository(db))
	f.family.now = f.calendar.Now
	f.ledger = NewLedgerService(db, repository.NewRewardRepository(db), f.family, lock.NewKeyedMutex(), f.calendar,
		PointValues{LevelSize: 100, ScheduleCompletion: 5, MedicineTaken: 10}, f.notifier)
	f.redemptions = NewRedemptionService(f.ledger, repository.NewCatalogRepository(db), repository.NewRedemptionRepository(db),
		f.family, f.notifier, f.publisher)
	f.medication = NewMedicationService(repository.NewMedicationRepository(db), repository.NewDoseLogRepository(db),
		repository.NewSettingsRepository(db), f.family, f.ledger, f.notifier, f.calendar)

	f.parent = models.Actor{ID: "parent-1", Role: models.RoleParent}
	_, err = f.family.UpsertParent(f.ctx, f.parent, "Lan", "lan@example.com")
	require.NoError(t, err)
	child, err := f.family.CreateChild(f.ctx, f.parent, "Minh")
	require.NoError(t, err)
	f.child = models.Actor{ID: child.ID, Role: models.RoleChild}
	return f
}

func (f *fixture) setNow(t time.Time) {
	f.now = t
}
