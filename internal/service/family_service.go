package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"focusquest/internal/models"
	"focusquest/internal/repository"
	"focusquest/internal/validation"

	"github.com/google/uuid"
)

// FamilyService handles parents, children and ownership checks
type FamilyService struct {
	familyRepo *repository.FamilyRepository
	now        func() time.Time
}

// NewFamilyService creates a new family service
func NewFamilyService(familyRepo *repository.FamilyRepository) *FamilyService {
	return &FamilyService{familyRepo: familyRepo, now: time.Now}
}

// UpsertParent registers the authenticated parent or updates their profile
func (s *FamilyService) UpsertParent(ctx context.Context, actor models.Actor, name, email string) (*models.Parent, error) {
	if !actor.IsParent() {
		return nil, ErrPermissionDenied
	}
	if err := validation.ValidateName("name", name); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	parent, err := s.familyRepo.GetParentByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	if parent == nil {
		parent = &models.Parent{ID: actor.ID, Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), CreatedAt: s.now().UTC()}
		if err := s.familyRepo.CreateParent(ctx, parent); err != nil {
			return nil, err
		}
		return parent, nil
	}

	parent.Name = strings.TrimSpace(name)
	parent.Email = strings.TrimSpace(email)
	if err := s.familyRepo.UpdateParent(ctx, parent); err != nil {
		return nil, err
	}
	return parent, nil
}

// GetParent retrieves a parent by ID
func (s *FamilyService) GetParent(ctx context.Context, parentID string) (*models.Parent, error) {
	parent, err := s.familyRepo.GetParentByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil, ErrParentNotFound
	}
	return parent, nil
}

// CreateChild adds a child profile owned by the acting parent
func (s *FamilyService) CreateChild(ctx context.Context, actor models.Actor, name string) (*models.Child, error) {
	if !actor.IsParent() {
		return nil, ErrPermissionDenied
	}
	if err := validation.ValidateName("name", name); err != nil {
		return nil, err
	}
	if _, err := s.GetParent(ctx, actor.ID); err != nil {
		return nil, err
	}

	child := &models.Child{
		ID:        uuid.NewString(),
		ParentID:  actor.ID,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.familyRepo.CreateChild(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// GetChild retrieves a child by ID
func (s *FamilyService) GetChild(ctx context.Context, childID string) (*models.Child, error) {
	child, err := s.familyRepo.GetChildByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// ListChildren lists the acting parent's children
func (s *FamilyService) ListChildren(ctx context.Context, actor models.Actor) ([]models.Child, error) {
	if !actor.IsParent() {
		return nil, ErrPermissionDenied
	}
	return s.familyRepo.ListChildren(ctx, actor.ID)
}

// ParentOfChild resolves the parent that owns a child
func (s *FamilyService) ParentOfChild(ctx context.Context, childID string) (*models.Parent, *models.Child, error) {
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	parent, err := s.GetParent(ctx, child.ParentID)
	if err != nil {
		return nil, nil, err
	}
	return parent, child, nil
}

// AuthorizeChild checks that actor may read or act on a child's records:
// the child themself, their parent, or the system.
func (s *FamilyService) AuthorizeChild(ctx context.Context, actor models.Actor, childID string) (*models.Child, error) {
	child, err := s.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleSystem:
		return child, nil
	case models.RoleParent:
		if child.ParentID == actor.ID {
			return child, nil
		}
	case models.RoleChild:
		if child.ID == actor.ID {
			return child, nil
		}
	}
	return nil, ErrPermissionDenied
}

// RequireParentOf checks that actor is the parent owning the child (or the system)
func (s *FamilyService) RequireParentOf(ctx context.Context, actor models.Actor, childID string) (*models.Child, error) {
	if actor.IsChild() {
		if _, err := s.GetChild(ctx, childID); err != nil {
			return nil, err
		}
		return nil, ErrPermissionDenied
	}
	return s.AuthorizeChild(ctx, actor, childID)
}
