package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/repository"
	"focusquest/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CatalogInput is the editable part of a catalog item
type CatalogInput struct {
	Title       string
	Description string
	PointsCost  int
	Category    string
}

func (in CatalogInput) validate() error {
	if err := validation.ValidateName("title", in.Title); err != nil {
		return err
	}
	return validation.ValidatePositive("pointsCost", in.PointsCost)
}

// RedemptionService manages the reward catalog and point redemptions
type RedemptionService struct {
	ledger      *LedgerService
	catalog     *repository.CatalogRepository
	redemptions *repository.RedemptionRepository
	family      *FamilyService
	notifier    Notifier
	publisher   Publisher
	now         func() time.Time
}

// NewRedemptionService creates a new redemption service. publisher may be nil.
func NewRedemptionService(ledger *LedgerService, catalog *repository.CatalogRepository, redemptions *repository.RedemptionRepository,
	family *FamilyService, notifier Notifier, publisher Publisher) *RedemptionService {
	return &RedemptionService{
		ledger:      ledger,
		catalog:     catalog,
		redemptions: redemptions,
		family:      family,
		notifier:    notifier,
		publisher:   publisher,
		now:         func() time.Time { return ledger.calendar.Now() },
	}
}

// CreateCatalogItem adds an active item to a child's catalog
func (s *RedemptionService) CreateCatalogItem(ctx context.Context, actor models.Actor, childID string, in CatalogInput) (*models.RewardCatalogItem, error) {
	if _, err := s.family.RequireParentOf(ctx, actor, childID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.RewardCatalogItem{
		ID:          uuid.NewString(),
		ChildID:     childID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		PointsCost:  in.PointsCost,
		Category:    in.Category,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.catalog.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateCatalogItem changes an item's details. Existing requests keep their snapshotted cost.
func (s *RedemptionService) UpdateCatalogItem(ctx context.Context, actor models.Actor, itemID string, in CatalogInput) (*models.RewardCatalogItem, error) {
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	item.Title = strings.TrimSpace(in.Title)
	item.Description = in.Description
	item.PointsCost = in.PointsCost
	item.Category = in.Category
	item.UpdatedAt = s.now().UTC()
	if err := s.catalog.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeactivateCatalogItem hides an item from new redemptions
func (s *RedemptionService) DeactivateCatalogItem(ctx context.Context, actor models.Actor, itemID string) (*models.RewardCatalogItem, error) {
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return item, nil
	}
	item.IsActive = false
	item.UpdatedAt = s.now().UTC()
	if err := s.catalog.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListCatalog lists a child's catalog
func (s *RedemptionService) ListCatalog(ctx context.Context, actor models.Actor, childID string, activeOnly bool) ([]models.RewardCatalogItem, error) {
	if _, err := s.family.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	if actor.IsChild() {
		activeOnly = true
	}
	return s.catalog.ListByChild(ctx, childID, activeOnly)
}

func (s *RedemptionService) ownedItem(ctx context.Context, actor models.Actor, itemID string) (*models.RewardCatalogItem, error) {
	item, err := s.catalog.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrRewardNotFound
	}
	if _, err := s.family.RequireParentOf(ctx, actor, item.ChildID); err != nil {
		return nil, err
	}
	return item, nil
}

// RequestRedemption holds the item's cost from the child's balance and opens a pending request
func (s *RedemptionService) RequestRedemption(ctx context.Context, actor models.Actor, childID, rewardID string) (*models.RedemptionRequest, error) {
	child, err := s.family.AuthorizeChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}

	item, err := s.catalog.GetByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.IsActive || item.ChildID != childID {
		return nil, ErrRewardNotFound
	}

	now := s.now()
	req := &models.RedemptionRequest{
		ID:          uuid.NewString(),
		ChildID:     childID,
		RewardID:    item.ID,
		PointsSpent: item.PointsCost,
		Status:      models.RedemptionPending,
		RequestedAt: now.UTC(),
	}

	_, err = s.ledger.withProfile(ctx, childID, s.ledger.calendar.DateOf(now),
		func(_ *repository.RewardRepository, tx *database.Tx, p *models.ChildRewardProfile) error {
			if item.PointsCost > p.CurrentPoints {
				return ErrInsufficientPoints
			}
			p.CurrentPoints -= item.PointsCost
			return s.redemptions.WithTx(tx).Create(ctx, req)
		})
	if err != nil {
		return nil, err
	}

	s.log(req).Info("redemption requested")
	s.notifier.Dispatch(ctx, Event{
		ChildID:    childID,
		Type:       models.NotifyRedemptionRequest,
		Title:      "Reward requested",
		Message:    fmt.Sprintf("%s wants to redeem %q for %d points", child.Name, item.Title, item.PointsCost),
		ActivityID: req.ID,
	})
	return req, nil
}

// ResolveRedemption approves or rejects a pending request. Rejection returns the held points.
func (s *RedemptionService) ResolveRedemption(ctx context.Context, actor models.Actor, requestID string, approve bool) (*models.RedemptionRequest, error) {
	req, err := s.ownedRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RedemptionPending {
		return nil, fmt.Errorf("%w: redemption is %s", ErrInvalidTransition, req.Status)
	}

	now := s.now()
	_, err = s.ledger.withProfile(ctx, req.ChildID, s.ledger.calendar.DateOf(now),
		func(_ *repository.RewardRepository, tx *database.Tx, p *models.ChildRewardProfile) error {
			if approve {
				at := now.UTC()
				req.Status = models.RedemptionApproved
				req.ApprovedAt = &at
				req.ApprovedBy = actor.ID
				p.TotalPointsSpent += req.PointsSpent
			} else {
				req.Status = models.RedemptionRejected
				p.CurrentPoints += req.PointsSpent
			}

			ok, err := s.redemptions.WithTx(tx).Transition(ctx, req, models.RedemptionPending)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: redemption is no longer pending", ErrInvalidTransition)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.log(req).Info("redemption resolved")
	if s.publisher != nil {
		s.publisher.Publish(req.ChildID, PushMessage{Type: "redemption_resolved", Data: req})
	}
	return req, nil
}

// CompleteRedemption marks an approved request as delivered
func (s *RedemptionService) CompleteRedemption(ctx context.Context, actor models.Actor, requestID string) (*models.RedemptionRequest, error) {
	req, err := s.ownedRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RedemptionApproved {
		return nil, fmt.Errorf("%w: redemption is %s", ErrInvalidTransition, req.Status)
	}

	at := s.now().UTC()
	req.Status = models.RedemptionCompleted
	req.CompletedAt = &at
	ok, err := s.redemptions.Transition(ctx, req, models.RedemptionApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: redemption is no longer approved", ErrInvalidTransition)
	}

	s.log(req).Info("redemption completed")
	return req, nil
}

// ListRedemptions lists a child's requests, optionally by status
func (s *RedemptionService) ListRedemptions(ctx context.Context, actor models.Actor, childID string, status models.RedemptionStatus) ([]models.RedemptionRequest, error) {
	if status != "" && !status.Valid() {
		return nil, validation.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	if _, err := s.family.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	return s.redemptions.ListByChild(ctx, childID, status)
}

func (s *RedemptionService) ownedRequest(ctx context.Context, actor models.Actor, requestID string) (*models.RedemptionRequest, error) {
	req, err := s.redemptions.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRedemptionNotFound
	}
	if _, err := s.family.RequireParentOf(ctx, actor, req.ChildID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *RedemptionService) log(req *models.RedemptionRequest) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"child_id":      req.ChildID,
		"redemption_id": req.ID,
		"status":        req.Status,
		"points":        req.PointsSpent,
	})
}
