package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// FamilyRepository handles database operations for parents and children
type FamilyRepository struct {
	db database.DBTX
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db database.DBTX) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateParent inserts a parent
func (r *FamilyRepository) CreateParent(ctx context.Context, p *models.Parent) error {
	query := "INSERT INTO parents (id, name, email, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Email, p.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to create parent: %w", err)
	}
	return nil
}

// UpdateParent updates a parent's name and email
func (r *FamilyRepository) UpdateParent(ctx context.Context, p *models.Parent) error {
	query := "UPDATE parents SET name = ?, email = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, p.Name, p.Email, p.ID); err != nil {
		return fmt.Errorf("failed to update parent: %w", err)
	}
	return nil
}

// GetParentByID retrieves a parent by ID
func (r *FamilyRepository) GetParentByID(ctx context.Context, id string) (*models.Parent, error) {
	query := "SELECT id, name, email, created_at FROM parents WHERE id = ?"
	p := &models.Parent{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return p, nil
}

// ListParents retrieves all parents
func (r *FamilyRepository) ListParents(ctx context.Context) ([]models.Parent, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, email, created_at FROM parents ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		var p models.Parent
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// CreateChild inserts a child
func (r *FamilyRepository) CreateChild(ctx context.Context, c *models.Child) error {
	query := "INSERT INTO children (id, parent_id, name, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.ParentID, c.Name, c.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

// GetChildByID retrieves a child by ID
func (r *FamilyRepository) GetChildByID(ctx context.Context, id string) (*models.Child, error) {
	query := "SELECT id, parent_id, name, created_at FROM children WHERE id = ?"
	c := &models.Child{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.ParentID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return c, nil
}

// ListChildren retrieves the children of a parent, or every child when parentID is empty
func (r *FamilyRepository) ListChildren(ctx context.Context, parentID string) ([]models.Child, error) {
	query := "SELECT id, parent_id, name, created_at FROM children"
	var args []interface{}
	if parentID != "" {
		query += " WHERE parent_id = ?"
		args = append(args, parentID)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var c models.Child
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}
