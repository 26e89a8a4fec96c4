package domain

import "errors"

var (
	ErrNoActiveQuota       = errors.New("no_active_quota")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrChargeFailed        = errors.New("charge_failed")
	ErrInvalidCharge       = errors.New("invalid_charge")
)
