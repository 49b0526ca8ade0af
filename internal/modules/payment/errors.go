package payment

import "errors"

var (
	ErrAlreadyCancelled    = errors.New("appointment already cancelled")
	ErrAlreadyPaid         = errors.New("appointment already paid")
	ErrPaymentFailed       = errors.New("payment not completed")
	ErrReceiptNotFound     = errors.New("receipt does not resolve to an appointment")
	ErrAmountMismatch      = errors.New("paid amount does not match order")
	ErrDuplicatePayment    = errors.New("appointment already paid by another order")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
)
