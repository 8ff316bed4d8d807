package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("tracker rejected credentials")
	ErrNoLedger           = errors.New("ledger unavailable")
	ErrEmptySearch        = errors.New("search pattern is empty")
	ErrNothingToDeliver   = errors.New("nothing staged for delivery")
	ErrDeliveryInProgress = errors.New("a delivery is already running")
)
