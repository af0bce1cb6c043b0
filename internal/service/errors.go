package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

var (
	ErrParentNotFound       = fmt.Errorf("parent %w", ErrNotFound)
	ErrChildNotFound        = fmt.Errorf("child %w", ErrNotFound)
	ErrRewardNotFound       = fmt.Errorf("reward %w", ErrNotFound)
	ErrRedemptionNotFound   = fmt.Errorf("redemption %w", ErrNotFound)
	ErrReminderNotFound     = fmt.Errorf("reminder %w", ErrNotFound)
	ErrDoseNotFound         = fmt.Errorf("dose %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// errDuplicateEvent aborts an award transaction when the store rejects a repeated source id
var errDuplicateEvent = errors.New("duplicate reward event")
