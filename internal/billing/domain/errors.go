package domain

import "errors"

var (
	ErrInvalidPeriod   = errors.New("invalid_billing_period")
	ErrBillingNotFound = errors.New("billing_not_found")
	ErrPeriodNotBilled = errors.New("period_not_billed")
)
