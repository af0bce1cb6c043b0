package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/points"
	"focusquest/internal/repository"
	"focusquest/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReminderInput is the editable part of a medication reminder
type ReminderInput struct {
	MedicationName string
	Dosage         string
	Frequency      string
	Times          []string
	StartDate      string
	EndDate        string
	Notes          string
}

func (in ReminderInput) validate() error {
	if err := validation.ValidateName("medicationName", in.MedicationName); err != nil {
		return err
	}
	if err := validation.ValidateName("dosage", in.Dosage); err != nil {
		return err
	}
	if err := validation.ValidateTimes(in.Times); err != nil {
		return err
	}
	return validation.ValidateDateRange(in.StartDate, in.EndDate)
}

// SettingsInput carries a full replacement of a child's medication settings
type SettingsInput struct {
	ReminderAdvanceMinutes    int
	AllowChildToMarkTaken     bool
	RequireParentConfirmation bool
	EnableSoundAlerts         bool
	EnablePushNotifications   bool
	MissedDoseAlertMinutes    int
}

// MedicationService manages reminders, settings and the dose log
type MedicationService struct {
	reminders *repository.MedicationRepository
	doses     *repository.DoseLogRepository
	settings  *repository.SettingsRepository
	family    *FamilyService
	ledger    *LedgerService
	notifier  Notifier
	calendar  *points.Calendar
}

// NewMedicationService creates a new medication service
func NewMedicationService(reminders *repository.MedicationRepository, doses *repository.DoseLogRepository, settings *repository.SettingsRepository,
	family *FamilyService, ledger *LedgerService, notifier Notifier, calendar *points.Calendar) *MedicationService {
	return &MedicationService{
		reminders: reminders,
		doses:     doses,
		settings:  settings,
		family:    family,
		ledger:    ledger,
		notifier:  notifier,
		calendar:  calendar,
	}
}

// CreateReminder adds an active reminder for a child
func (s *MedicationService) CreateReminder(ctx context.Context, actor models.Actor, childID string, in ReminderInput) (*models.MedicationReminder, error) {
	if _, err := s.family.RequireParentOf(ctx, actor, childID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.calendar.Now().UTC()
	rem := &models.MedicationReminder{
		ID:        uuid.NewString(),
		ChildID:   childID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyReminderInput(rem, in)
	if err := s.reminders.Create(ctx, rem); err != nil {
		return nil, err
	}

	s.log(rem).Info("medication reminder created")
	return rem, nil
}

// UpdateReminder replaces a reminder's schedule and details
func (s *MedicationService) UpdateReminder(ctx context.Context, actor models.Actor, reminderID string, in ReminderInput) (*models.MedicationReminder, error) {
	rem, err := s.ownedReminder(ctx, actor, reminderID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	applyReminderInput(rem, in)
	rem.UpdatedAt = s.calendar.Now().UTC()
	if err := s.reminders.Update(ctx, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

// DeactivateReminder stops future doses. Reminders are never deleted so their logs stay valid.
func (s *MedicationService) DeactivateReminder(ctx context.Context, actor models.Actor, reminderID string) (*models.MedicationReminder, error) {
	rem, err := s.ownedReminder(ctx, actor, reminderID)
	if err != nil {
		return nil, err
	}
	if !rem.IsActive {
		return rem, nil
	}

	rem.IsActive = false
	rem.UpdatedAt = s.calendar.Now().UTC()
	if err := s.reminders.Update(ctx, rem); err != nil {
		return nil, err
	}
	s.log(rem).Info("medication reminder deactivated")
	return rem, nil
}

// GetReminder returns a reminder visible to actor
func (s *MedicationService) GetReminder(ctx context.Context, actor models.Actor, reminderID string) (*models.MedicationReminder, error) {
	rem, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, ErrReminderNotFound
	}
	if _, err := s.family.AuthorizeChild(ctx, actor, rem.ChildID); err != nil {
		return nil, err
	}
	return rem, nil
}

// ListReminders lists all of a child's reminders
func (s *MedicationService) ListReminders(ctx context.Context, actor models.Actor, childID string) ([]models.MedicationReminder, error) {
	if _, err := s.family.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.reminders.ListByChild(ctx, childID)
}

// ActiveReminders lists every active reminder across children
func (s *MedicationService) ActiveReminders(ctx context.Context) ([]models.MedicationReminder, error) {
	return s.reminders.ListActive(ctx)
}

func (s *MedicationService) ownedReminder(ctx context.Context, actor models.Actor, reminderID string) (*models.MedicationReminder, error) {
	rem, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, ErrReminderNotFound
	}
	if _, err := s.family.RequireParentOf(ctx, actor, rem.ChildID); err != nil {
		return nil, err
	}
	return rem, nil
}

func applyReminderInput(rem *models.MedicationReminder, in ReminderInput) {
	rem.MedicationName = strings.TrimSpace(in.MedicationName)
	rem.Dosage = strings.TrimSpace(in.Dosage)
	rem.Frequency = in.Frequency
	rem.Times = append([]string(nil), in.Times...)
	rem.StartDate = in.StartDate
	rem.EndDate = in.EndDate
	rem.Notes = in.Notes
}

// Settings returns a child's settings, falling back to the defaults
func (s *MedicationService) Settings(ctx context.Context, childID string) (models.MedicationSettings, error) {
	stored, err := s.settings.Get(ctx, childID)
	if err != nil {
		return models.MedicationSettings{}, err
	}
	if stored == nil {
		return models.DefaultMedicationSettings(childID), nil
	}
	return *stored, nil
}

// GetSettings returns a child's settings for actor
func (s *MedicationService) GetSettings(ctx context.Context, actor models.Actor, childID string) (models.MedicationSettings, error) {
	if _, err := s.family.AuthorizeChild(ctx, actor, childID); err != nil {
		return models.MedicationSettings{}, err
	}
	return s.Settings(ctx, childID)
}

// UpdateSettings upserts a child's settings
func (s *MedicationService) UpdateSettings(ctx context.Context, actor models.Actor, childID string, in SettingsInput) (models.MedicationSettings, error) {
	if _, err := s.family.RequireParentOf(ctx, actor, childID); err != nil {
		return models.MedicationSettings{}, err
	}
	if err := validation.ValidateNonNegative("reminderAdvanceMinutes", in.ReminderAdvanceMinutes); err != nil {
		return models.MedicationSettings{}, err
	}
	if err := validation.ValidateNonNegative("missedDoseAlertMinutes", in.MissedDoseAlertMinutes); err != nil {
		return models.MedicationSettings{}, err
	}
	if in.MissedDoseAlertMinutes > models.MaxMissedDoseAlertMinutes {
		return models.MedicationSettings{}, validation.ValidationError{
			Field:   "missedDoseAlertMinutes",
			Message: fmt.Sprintf("missedDoseAlertMinutes must be at most %d", models.MaxMissedDoseAlertMinutes),
		}
	}

	settings := models.MedicationSettings{
		ChildID:                   childID,
		ReminderAdvanceMinutes:    in.ReminderAdvanceMinutes,
		AllowChildToMarkTaken:     in.AllowChildToMarkTaken,
		RequireParentConfirmation: in.RequireParentConfirmation,
		EnableSoundAlerts:         in.EnableSoundAlerts,
		EnablePushNotifications:   in.EnablePushNotifications,
		MissedDoseAlertMinutes:    in.MissedDoseAlertMinutes,
		UpdatedAt:                 s.calendar.Now().UTC(),
	}
	if err := s.settings.Upsert(ctx, &settings); err != nil {
		return models.MedicationSettings{}, err
	}
	return settings, nil
}

// EnsureDoseLog creates the pending log for a reminder slot. When the slot already has a
// log, that log is returned with created=false.
func (s *MedicationService) EnsureDoseLog(ctx context.Context, rem *models.MedicationReminder, due time.Time) (*models.MedicationDoseLog, bool, error) {
	now := s.calendar.Now().UTC()
	dose := &models.MedicationDoseLog{
		ID:            uuid.NewString(),
		ReminderID:    rem.ID,
		ChildID:       rem.ChildID,
		ScheduledTime: due.UTC(),
		Status:        models.DosePending,
		ReportedBy:    models.RoleSystem,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.doses.Insert(ctx, dose); err != nil {
		if !s.doses.IsUniqueViolation(err) {
			return nil, false, fmt.Errorf("failed to create dose log: %w", err)
		}
		existing, err := s.doses.GetBySlot(ctx, rem.ID, due)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return dose, true, nil
}

// MarkDose moves a dose through its lifecycle:
// pending to taken, missed or delayed; delayed to taken; taken to taken retries the award.
func (s *MedicationService) MarkDose(ctx context.Context, actor models.Actor, doseID string, status models.DoseStatus, notes string) (*models.MedicationDoseLog, error) {
	if !status.Valid() || status == models.DosePending {
		return nil, validation.ValidationError{Field: "status", Message: fmt.Sprintf("cannot mark dose as %q", status)}
	}

	dose, err := s.doses.GetByID(ctx, doseID)
	if err != nil {
		return nil, err
	}
	if dose == nil {
		return nil, ErrDoseNotFound
	}
	child, err := s.family.AuthorizeChild(ctx, actor, dose.ChildID)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx, dose.ChildID)
	if err != nil {
		return nil, err
	}
	if actor.IsChild() && (status != models.DoseTaken || !settings.AllowChildToMarkTaken) {
		return nil, ErrPermissionDenied
	}

	from := dose.Status
	switch {
	case from == models.DosePending:
	case from == models.DoseDelayed && status == models.DoseTaken:
		s.doseLog(dose).Info("delayed dose corrected to taken")
	case from == models.DoseTaken && status == models.DoseTaken:
		// Retry of an earlier mark; the award below is idempotent on the dose id.
		if err := s.awardDose(ctx, dose, child, actor, settings); err != nil {
			return nil, err
		}
		return dose, nil
	default:
		return nil, fmt.Errorf("%w: dose is %s, cannot mark %s", ErrInvalidTransition, from, status)
	}

	now := s.calendar.Now().UTC()
	dose.Status = status
	dose.ReportedBy = actor.Role
	dose.UpdatedAt = now
	if notes != "" {
		dose.Notes = notes
	}
	if status == models.DoseTaken {
		dose.TakenTime = &now
	}

	ok, err := s.doses.Transition(ctx, dose, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: dose changed concurrently", ErrInvalidTransition)
	}
	s.doseLog(dose).WithField("from", from).Info("dose marked")

	if status == models.DoseTaken {
		if err := s.awardDose(ctx, dose, child, actor, settings); err != nil {
			return nil, err
		}
	}
	return dose, nil
}

// MarkMissed is the explicit path for overdue pending doses
func (s *MedicationService) MarkMissed(ctx context.Context, actor models.Actor, doseID, notes string) (*models.MedicationDoseLog, error) {
	if actor.IsChild() {
		return nil, ErrPermissionDenied
	}
	return s.MarkDose(ctx, actor, doseID, models.DoseMissed, notes)
}

func (s *MedicationService) awardDose(ctx context.Context, dose *models.MedicationDoseLog, child *models.Child, actor models.Actor, settings models.MedicationSettings) error {
	medication := "medicine"
	if rem, err := s.reminders.GetByID(ctx, dose.ReminderID); err == nil && rem != nil {
		medication = rem.MedicationName
	}

	ev, created, err := s.ledger.AwardPoints(ctx, AwardRequest{
		ChildID:  dose.ChildID,
		Points:   s.ledger.Values().MedicineTaken,
		Reason:   "Took " + medication,
		Category: models.CategoryMedicineTaken,
		SourceID: dose.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to award dose: %w", err)
	}
	if !created {
		return nil
	}

	message := fmt.Sprintf("%s took %s (+%d points)", child.Name, medication, ev.Points)
	if actor.IsChild() && settings.RequireParentConfirmation {
		message = fmt.Sprintf("%s says they took %s. Please confirm.", child.Name, medication)
	}
	s.notifier.Dispatch(ctx, Event{
		ChildID:    dose.ChildID,
		Type:       models.NotifyMedicineTaken,
		Title:      "Medicine taken",
		Message:    message,
		ActivityID: dose.ID,
	})
	return nil
}

// ListDoses lists a child's doses between two calendar dates inclusive
func (s *MedicationService) ListDoses(ctx context.Context, actor models.Actor, childID, fromDate, toDate string) ([]models.MedicationDoseLog, error) {
	if _, err := s.family.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}

	today := s.calendar.StartOfDay(s.calendar.Now())
	from, to := today, today.AddDate(0, 0, 1)
	if fromDate != "" {
		d, err := s.calendar.ParseDate(fromDate)
		if err != nil {
			return nil, validation.ValidationError{Field: "from", Message: "from must be YYYY-MM-DD"}
		}
		from = d
	}
	if toDate != "" {
		d, err := s.calendar.ParseDate(toDate)
		if err != nil {
			return nil, validation.ValidationError{Field: "to", Message: "to must be YYYY-MM-DD"}
		}
		to = d.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return nil, validation.ValidationError{Field: "to", Message: "to must not be before from"}
	}
	return s.doses.ListByChild(ctx, childID, from, to)
}

// Adherence reports dose outcomes over the last days calendar days including today
func (s *MedicationService) Adherence(ctx context.Context, actor models.Actor, childID string, days int) (*models.AdherenceReport, error) {
	if _, err := s.family.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}
	if days > 366 {
		return nil, validation.ValidationError{Field: "days", Message: "days must be at most 366"}
	}

	end := s.calendar.StartOfDay(s.calendar.Now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	doses, err := s.doses.ListByChild(ctx, childID, start, end)
	if err != nil {
		return nil, err
	}

	report := &models.AdherenceReport{
		ChildID:     childID,
		Days:        days,
		From:        start.Format(points.DateLayout),
		To:          end.AddDate(0, 0, -1).Format(points.DateLayout),
		MissedDoses: []models.MedicationDoseLog{},
		Daily:       make([]models.DailyAdherence, days),
	}
	for i := range report.Daily {
		report.Daily[i].Date = start.AddDate(0, 0, i).Format(points.DateLayout)
	}
	tallyDoses(report, doses, s.calendar.DateOf)

	for i := range report.Daily {
		report.Daily[i].Rate = rate(report.Daily[i].Taken, report.Daily[i].Scheduled)
	}
	report.AdherenceRate = rate(report.TotalTaken, report.TotalScheduled)
	return report, nil
}

// tallyDoses counts doses into the report's days. Doses dated outside the report are skipped.
func tallyDoses(report *models.AdherenceReport, doses []models.MedicationDoseLog, dateOf func(time.Time) string) {
	index := make(map[string]int, len(report.Daily))
	for i, day := range report.Daily {
		index[day.Date] = i
	}

	for _, d := range doses {
		i, ok := index[dateOf(d.ScheduledTime)]
		if !ok {
			continue
		}
		day := &report.Daily[i]
		day.Scheduled++
		report.TotalScheduled++
		switch d.Status {
		case models.DoseTaken:
			day.Taken++
			report.TotalTaken++
		case models.DoseMissed:
			day.Missed++
			report.TotalMissed++
			report.MissedDoses = append(report.MissedDoses, d)
		}
	}
}

// rate is taken/scheduled as a percentage rounded to one decimal
func rate(taken, scheduled int) float64 {
	if scheduled == 0 {
		return 0
	}
	return math.Round(float64(taken)*1000/float64(scheduled)) / 10
}

// OverdueDoses returns pending doses due in [since, cutoff] that have not been alerted yet
func (s *MedicationService) OverdueDoses(ctx context.Context, since, cutoff time.Time) ([]models.MedicationDoseLog, error) {
	return s.doses.ListPendingUnalerted(ctx, since, cutoff)
}

// StampMissedAlert records that a missed alert went out. It returns false if one already had.
func (s *MedicationService) StampMissedAlert(ctx context.Context, doseID string) (bool, error) {
	return s.doses.MarkMissedAlerted(ctx, doseID, s.calendar.Now())
}

// Reminder returns a reminder by id without an ownership check
func (s *MedicationService) Reminder(ctx context.Context, reminderID string) (*models.MedicationReminder, error) {
	rem, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, ErrReminderNotFound
	}
	return rem, nil
}

func (s *MedicationService) log(rem *models.MedicationReminder) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"child_id":    rem.ChildID,
		"reminder_id": rem.ID,
	})
}

func (s *MedicationService) doseLog(d *models.MedicationDoseLog) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"child_id":    d.ChildID,
		"reminder_id": d.ReminderID,
		"dose_id":     d.ID,
		"status":      d.Status,
	})
}
