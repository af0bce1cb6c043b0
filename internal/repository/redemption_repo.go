package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusquest/internal/database"
	"focusquest/internal/models"
)

// RedemptionRepository handles redemption requests
type RedemptionRepository struct {
	db database.DBTX
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(db database.DBTX) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RedemptionRepository) WithTx(tx database.DBTX) *RedemptionRepository {
	return &RedemptionRepository{db: tx}
}

const redemptionColumns = "id, child_id, reward_id, points_spent, status, requested_at, approved_at, approved_by, completed_at"

func scanRedemption(s rowScanner) (*models.RedemptionRequest, error) {
	req := &models.RedemptionRequest{}
	var (
		approvedAt  sql.NullTime
		approvedBy  sql.NullString
		completedAt sql.NullTime
	)
	err := s.Scan(&req.ID, &req.ChildID, &req.RewardID, &req.PointsSpent, &req.Status,
		&req.RequestedAt, &approvedAt, &approvedBy, &completedAt)
	if err != nil {
		return nil, err
	}
	req.RequestedAt = req.RequestedAt.UTC()
	req.ApprovedAt = timePtr(approvedAt)
	req.ApprovedBy = approvedBy.String
	req.CompletedAt = timePtr(completedAt)
	return req, nil
}

// Create inserts a redemption request
func (r *RedemptionRepository) Create(ctx context.Context, req *models.RedemptionRequest) error {
	query := "INSERT INTO redemptions (" + redemptionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, req.ID, req.ChildID, req.RewardID, req.PointsSpent, string(req.Status),
		req.RequestedAt.UTC(), nullTime(req.ApprovedAt), nullString(req.ApprovedBy), nullTime(req.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
	}
	return nil
}

// GetByID retrieves a redemption request by ID
func (r *RedemptionRepository) GetByID(ctx context.Context, id string) (*models.RedemptionRequest, error) {
	query := "SELECT " + redemptionColumns + " FROM redemptions WHERE id = ?"
	req, err := scanRedemption(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	return req, nil
}

// Transition moves a request from one status to another. It returns false when the
// stored status was no longer from, so concurrent resolutions cannot both apply.
func (r *RedemptionRepository) Transition(ctx context.Context, req *models.RedemptionRequest, from models.RedemptionStatus) (bool, error) {
	query := `
		UPDATE redemptions SET status = ?, approved_at = ?, approved_by = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`
	res, err := r.db.ExecContext(ctx, query, string(req.Status), nullTime(req.ApprovedAt), nullString(req.ApprovedBy),
		nullTime(req.CompletedAt), req.ID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update redemption: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update redemption: %w", err)
	}
	return n == 1, nil
}

// ListByChild lists a child's requests newest first, optionally filtered by status
func (r *RedemptionRepository) ListByChild(ctx context.Context, childID string, status models.RedemptionStatus) ([]models.RedemptionRequest, error) {
	query := "SELECT " + redemptionColumns + " FROM redemptions WHERE child_id = ?"
	args := []interface{}{childID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY requested_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	var reqs []models.RedemptionRequest
	for rows.Next() {
		req, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}
