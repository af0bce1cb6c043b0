package models

import "time"

// RewardCatalogItem is something a child can spend points on
type RewardCatalogItem struct {
	ID          string    `json:"id"`
	ChildID     string    `json:"childId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PointsCost  int       `json:"pointsCost"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RedemptionStatus is the lifecycle state of a redemption request
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionCompleted RedemptionStatus = "completed"
	RedemptionRejected  RedemptionStatus = "rejected"
)

// Valid reports whether s is a known status
func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionCompleted, RedemptionRejected:
		return true
	}
	return false
}

// RedemptionRequest holds points while pending
type RedemptionRequest struct {
	ID          string           `json:"id"`
	ChildID     string           `json:"childId"`
	RewardID    string           `json:"rewardId"`
	PointsSpent int              `json:"pointsSpent"`
	Status      RedemptionStatus `json:"status"`
	RequestedAt time.Time        `json:"requestedAt"`
	ApprovedAt  *time.Time       `json:"approvedAt,omitempty"`
	ApprovedBy  string           `json:"approvedBy,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}
