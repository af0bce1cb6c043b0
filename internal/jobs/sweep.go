package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/points"
	"focusquest/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// missedAlertLookback is how far back the missed-dose pass looks for pending doses.
// It covers the largest alert delay plus a day of scheduler downtime.
const missedAlertLookback = time.Duration(models.MaxMissedDoseAlertMinutes)*time.Minute + 24*time.Hour

// EmailSender delivers missed-dose e-mails to parents
type EmailSender interface {
	SendMissedDoseAlert(ctx context.Context, toEmail, toName, childName, medication string, scheduled time.Time) error
}

// SweepResult counts what one sweep did
type SweepResult struct {
	Reminders    int
	DosesCreated int
	MissedAlerts int
	Failures     int
}

// AdherenceSweep materializes due doses and raises missed-dose alerts
type AdherenceSweep struct {
	medication  *service.MedicationService
	family      *service.FamilyService
	notifier    service.Notifier
	publisher   service.Publisher
	email       EmailSender
	calendar    *points.Calendar
	concurrency int
}

// NewAdherenceSweep creates a sweep. publisher and email may be nil.
func NewAdherenceSweep(medication *service.MedicationService, family *service.FamilyService, notifier service.Notifier,
	publisher service.Publisher, email EmailSender, calendar *points.Calendar, concurrency int) *AdherenceSweep {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &AdherenceSweep{
		medication:  medication,
		family:      family,
		notifier:    notifier,
		publisher:   publisher,
		email:       email,
		calendar:    calendar,
		concurrency: concurrency,
	}
}

// settingsCache memoizes per-child settings for the duration of one sweep
type settingsCache struct {
	mu         sync.Mutex
	byChild    map[string]models.MedicationSettings
	medication *service.MedicationService
}

func (c *settingsCache) get(ctx context.Context, childID string) (models.MedicationSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.byChild[childID]; ok {
		return s, nil
	}
	s, err := c.medication.Settings(ctx, childID)
	if err != nil {
		return models.MedicationSettings{}, err
	}
	c.byChild[childID] = s
	return s, nil
}

// Run performs one sweep at now. Individual reminder failures are logged and counted;
// only cancellation is returned as an error.
func (s *AdherenceSweep) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	reminders, err := s.medication.ActiveReminders(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list reminders: %w", err)
	}
	result.Reminders = len(reminders)

	cache := &settingsCache{byChild: make(map[string]models.MedicationSettings), medication: s.medication}
	var created, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range reminders {
		rem := &reminders[i]
		g.Go(func() error {
			n, err := s.sweepReminder(gctx, cache, rem, now)
			created.Add(int64(n))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures.Add(1)
				logger.Log.WithError(err).WithFields(logrus.Fields{
					"child_id":    rem.ChildID,
					"reminder_id": rem.ID,
				}).Error("reminder sweep failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.DosesCreated = int(created.Load())
	result.MissedAlerts, err = s.alertMissed(ctx, cache, now, &failures)
	if err != nil {
		return result, err
	}
	result.Failures = int(failures.Load())

	if result.DosesCreated > 0 || result.MissedAlerts > 0 || result.Failures > 0 {
		logger.Log.WithFields(logrus.Fields{
			"reminders":     result.Reminders,
			"doses_created": result.DosesCreated,
			"missed_alerts": result.MissedAlerts,
			"failures":      result.Failures,
		}).Info("adherence sweep finished")
	}
	return result, nil
}

// sweepReminder creates the pending logs for slots of rem that fall inside the advance window.
// Yesterday and tomorrow are checked too so windows straddling midnight are found.
func (s *AdherenceSweep) sweepReminder(ctx context.Context, cache *settingsCache, rem *models.MedicationReminder, now time.Time) (int, error) {
	settings, err := cache.get(ctx, rem.ChildID)
	if err != nil {
		return 0, err
	}
	advance := time.Duration(settings.ReminderAdvanceMinutes) * time.Minute

	created := 0
	today := s.calendar.StartOfDay(now)
	for offset := -1; offset <= 1; offset++ {
		day := today.AddDate(0, 0, offset)
		if !rem.ActiveOn(day.Format(points.DateLayout)) {
			continue
		}
		for _, clock := range rem.Times {
			due, err := s.calendar.At(day, clock)
			if err != nil {
				return created, fmt.Errorf("invalid reminder time %q: %w", clock, err)
			}
			if diff := due.Sub(now); diff > advance || diff < -advance {
				continue
			}

			dose, isNew, err := s.medication.EnsureDoseLog(ctx, rem, due)
			if err != nil {
				return created, err
			}
			if !isNew {
				continue
			}
			created++
			s.announceDue(ctx, rem, dose, settings)
		}
	}
	return created, nil
}

func (s *AdherenceSweep) announceDue(ctx context.Context, rem *models.MedicationReminder, dose *models.MedicationDoseLog, settings models.MedicationSettings) {
	when := dose.ScheduledTime.In(s.calendar.Location).Format("15:04")
	s.notifier.Dispatch(ctx, service.Event{
		ChildID:    rem.ChildID,
		Type:       models.NotifyMedicineDue,
		Title:      "Medicine due",
		Message:    fmt.Sprintf("%s %s is due at %s", rem.MedicationName, rem.Dosage, when),
		ActivityID: dose.ID,
	})

	if s.publisher == nil || !settings.EnablePushNotifications {
		return
	}
	s.publisher.Publish(rem.ChildID, service.PushMessage{
		Type: "medication_reminder",
		Data: map[string]interface{}{
			"doseId":         dose.ID,
			"reminderId":     rem.ID,
			"medicationName": rem.MedicationName,
			"dosage":         rem.Dosage,
			"scheduledTime":  dose.ScheduledTime,
			"sound":          settings.EnableSoundAlerts,
		},
	})
}

// alertMissed notifies parents once about pending doses that are overdue by the child's
// missedDoseAlertMinutes. The doses stay pending.
func (s *AdherenceSweep) alertMissed(ctx context.Context, cache *settingsCache, now time.Time, failures *atomic.Int64) (int, error) {
	overdue, err := s.medication.OverdueDoses(ctx, now.Add(-missedAlertLookback), now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue doses: %w", err)
	}

	alerted := 0
	for i := range overdue {
		if err := ctx.Err(); err != nil {
			return alerted, err
		}
		dose := &overdue[i]
		sent, err := s.alertDose(ctx, cache, dose, now)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return alerted, err
			}
			failures.Add(1)
			logger.Log.WithError(err).WithField("dose_id", dose.ID).Error("missed dose alert failed")
			continue
		}
		if sent {
			alerted++
		}
	}
	return alerted, nil
}

func (s *AdherenceSweep) alertDose(ctx context.Context, cache *settingsCache, dose *models.MedicationDoseLog, now time.Time) (bool, error) {
	settings, err := cache.get(ctx, dose.ChildID)
	if err != nil {
		return false, err
	}
	if now.Sub(dose.ScheduledTime) < time.Duration(settings.MissedDoseAlertMinutes)*time.Minute {
		return false, nil
	}

	stamped, err := s.medication.StampMissedAlert(ctx, dose.ID)
	if err != nil || !stamped {
		return false, err
	}

	rem, err := s.medication.Reminder(ctx, dose.ReminderID)
	if err != nil {
		return false, err
	}
	parent, child, err := s.family.ParentOfChild(ctx, dose.ChildID)
	if err != nil {
		return false, err
	}

	when := dose.ScheduledTime.In(s.calendar.Location).Format("15:04")
	s.notifier.Dispatch(ctx, service.Event{
		ChildID:    dose.ChildID,
		Type:       models.NotifyMedicineMissed,
		Title:      "Missed medicine",
		Message:    fmt.Sprintf("%s has not taken %s %s due at %s", child.Name, rem.MedicationName, rem.Dosage, when),
		ActivityID: dose.ID,
	})

	if s.email != nil {
		if err := s.email.SendMissedDoseAlert(ctx, parent.Email, parent.Name, child.Name, rem.MedicationName, dose.ScheduledTime); err != nil {
			logger.Log.WithError(err).WithField("dose_id", dose.ID).Warn("missed dose email failed")
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"child_id":    dose.ChildID,
		"reminder_id": dose.ReminderID,
		"dose_id":     dose.ID,
	}).Info("missed dose alert raised")
	return true, nil
}
