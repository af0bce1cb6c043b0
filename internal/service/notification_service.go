package service

import (
	"context"
	"fmt"
	"time"

	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/repository"
	"focusquest/internal/validation"

	"github.com/sirupsen/logrus"
)

// Event is a domain event addressed to the parent of ChildID
type Event struct {
	ChildID    string
	Type       models.NotificationType
	Title      string
	Message    string
	ActivityID string
}

// Notifier delivers domain events without failing the caller
type Notifier interface {
	Dispatch(ctx context.Context, ev Event)
}

// PushMessage is a live message sent to a connected user
type PushMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Publisher pushes live messages to a user's open streams
type Publisher interface {
	Publish(userID string, msg PushMessage)
}

// NotificationOptions configures inbox delivery
type NotificationOptions struct {
	MaxAttempts   int
	RetryBackoff  time.Duration
	QueueSize     int
	RetentionDays int
}

type retryItem struct {
	ev       Event
	at       time.Time
	attempts int
}

// NotificationService is the dispatcher and inbox for parent notifications
type NotificationService struct {
	repo      *repository.NotificationRepository
	family    *FamilyService
	publisher Publisher
	opts      NotificationOptions
	retries   chan retryItem
	now       func() time.Time
}

// NewNotificationService creates a dispatcher. publisher may be nil.
func NewNotificationService(repo *repository.NotificationRepository, family *FamilyService, publisher Publisher, opts NotificationOptions) *NotificationService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 30
	}
	return &NotificationService{
		repo:      repo,
		family:    family,
		publisher: publisher,
		opts:      opts,
		retries:   make(chan retryItem, opts.QueueSize),
		now:       time.Now,
	}
}

// Dispatch stores ev in the owning parent's inbox and pushes it live.
// Failures are logged and queued for retry; the caller never sees them.
func (s *NotificationService) Dispatch(ctx context.Context, ev Event) {
	if err := s.deliver(ctx, ev); err != nil {
		s.log(ev).WithError(err).Warn("notification delivery failed, queued for retry")
		s.enqueue(retryItem{ev: ev, at: s.now(), attempts: 1})
	}
}

func (s *NotificationService) deliver(ctx context.Context, ev Event) error {
	parent, child, err := s.family.ParentOfChild(ctx, ev.ChildID)
	if err != nil {
		return fmt.Errorf("failed to resolve parent: %w", err)
	}

	n := &models.Notification{
		UserID:     parent.ID,
		ChildID:    child.ID,
		Type:       ev.Type,
		Title:      ev.Title,
		Message:    ev.Message,
		ActivityID: ev.ActivityID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.Publish(parent.ID, PushMessage{Type: "notification", Data: n})
	}
	return nil
}

func (s *NotificationService) enqueue(item retryItem) {
	select {
	case s.retries <- item:
	default:
		s.log(item.ev).Error("notification retry queue full, dropping event")
	}
}

// Pending returns the number of events waiting for retry
func (s *NotificationService) Pending() int {
	return len(s.retries)
}

// Run retries failed deliveries with linear backoff until ctx is done
func (s *NotificationService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-s.retries:
			wait := time.Duration(item.attempts)*s.opts.RetryBackoff - s.now().Sub(item.at)
			if wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}

			if err := s.deliver(ctx, item.ev); err != nil {
				item.attempts++
				if item.attempts > s.opts.MaxAttempts {
					s.log(item.ev).WithError(err).WithField("attempts", item.attempts-1).Error("giving up on notification")
					continue
				}
				item.at = s.now()
				s.enqueue(item)
				continue
			}
			s.log(item.ev).WithField("attempts", item.attempts+1).Info("notification delivered after retry")
		}
	}
}

func (s *NotificationService) log(ev Event) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"child_id": ev.ChildID,
		"type":     ev.Type,
	})
}

// List returns the acting parent's notifications
func (s *NotificationService) List(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) ([]models.Notification, error) {
	if !actor.IsParent() {
		return nil, ErrPermissionDenied
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, actor.ID, unreadOnly, limit)
}

// UnreadCount counts the acting parent's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int, error) {
	if !actor.IsParent() {
		return 0, ErrPermissionDenied
	}
	return s.repo.CountUnread(ctx, actor.ID)
}

// MarkRead marks a notification read; only its owner may do so
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, id int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if !actor.IsParent() || n.UserID != actor.ID {
		return ErrPermissionDenied
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

// CleanupExpired deletes read notifications older than the retention window
func (s *NotificationService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.opts.RetentionDays)
	n, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", err)
	}
	return n, nil
}

// RecordChildEvent notifies the parent of a child activity such as a login or a break
func (s *NotificationService) RecordChildEvent(ctx context.Context, actor models.Actor, childID string, typ models.NotificationType, detail string) error {
	child, err := s.family.AuthorizeChild(ctx, actor, childID)
	if err != nil {
		return err
	}

	var title, message string
	switch typ {
	case models.NotifyBreakTaken:
		title, message = "Break started", fmt.Sprintf("%s is taking a break", child.Name)
	case models.NotifyChildLogin:
		title, message = "Logged in", fmt.Sprintf("%s logged in", child.Name)
	case models.NotifyChildLogout:
		title, message = "Logged out", fmt.Sprintf("%s logged out", child.Name)
	default:
		return validation.ValidationError{Field: "type", Message: fmt.Sprintf("unsupported child event %q", typ)}
	}
	if detail != "" {
		message += ": " + detail
	}

	s.Dispatch(ctx, Event{ChildID: child.ID, Type: typ, Title: title, Message: message})
	return nil
}
