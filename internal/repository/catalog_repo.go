package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// CatalogRepository handles the per-child reward catalog
type CatalogRepository struct {
	db database.DBTX
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db database.DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = "id, child_id, title, description, points_cost, category, is_active, created_at, updated_at"

func scanCatalogItem(s rowScanner) (*models.RewardCatalogItem, error) {
	item := &models.RewardCatalogItem{}
	err := s.Scan(&item.ID, &item.ChildID, &item.Title, &item.Description, &item.PointsCost,
		&item.Category, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts a catalog item
func (r *CatalogRepository) Create(ctx context.Context, item *models.RewardCatalogItem) error {
	query := "INSERT INTO reward_catalog (" + catalogColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, item.ID, item.ChildID, item.Title, item.Description, item.PointsCost,
		item.Category, item.IsActive, item.CreatedAt.UTC(), item.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create catalog item: %w", err)
	}
	return nil
}

// GetByID retrieves a catalog item by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*models.RewardCatalogItem, error) {
	query := "SELECT " + catalogColumns + " FROM reward_catalog WHERE id = ?"
	item, err := scanCatalogItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

// Update persists title, description, cost, category and active flag
func (r *CatalogRepository) Update(ctx context.Context, item *models.RewardCatalogItem) error {
	query := `
		UPDATE reward_catalog
		SET title = ?, description = ?, points_cost = ?, category = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, item.Title, item.Description, item.PointsCost, item.Category,
		item.IsActive, item.UpdatedAt.UTC(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update catalog item: %w", err)
	}
	return nil
}

// ListByChild lists a child's catalog, optionally only active items
func (r *CatalogRepository) ListByChild(ctx context.Context, childID string, activeOnly bool) ([]models.RewardCatalogItem, error) {
	query := "SELECT " + catalogColumns + " FROM reward_catalog WHERE child_id = ?"
	args := []interface{}{childID}
	if activeOnly {
		query += " AND is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY points_cost ASC, title ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var items []models.RewardCatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
