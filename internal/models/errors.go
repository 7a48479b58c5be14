package models

import "fmt"

// ValidationError reports bad input. No side effects have occurred and the
// caller can correct and resubmit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PaymentRejectedError reports a payment signature mismatch. Terminal: no
// record is built and no write is attempted.
type PaymentRejectedError struct {
	GatewayOrderID   string
	GatewayPaymentID string
}

func (e *PaymentRejectedError) Error() string {
	return fmt.Sprintf("payment rejected: signature mismatch for gateway order %s", e.GatewayOrderID)
}

// StoreWriteError reports a definite failure of one persistence write. The
// failed write is safe to retry.
type StoreWriteError struct {
	Store string // "customer" or "global"
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s store write failed: %v", e.Store, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// StoreTimeoutError reports a write whose outcome is unknown. Unlike
// StoreWriteError it must not be blindly retried.
type StoreTimeoutError struct {
	Store string
}

func (e *StoreTimeoutError) Error() string {
	return fmt.Sprintf("%s store write timed out: outcome unknown", e.Store)
}

// PartialCommitError reports that the customer-side write succeeded but the
// global-table write failed. The order exists and the ID is usable; the
// global copy is pending reconciliation.
type PartialCommitError struct {
	OrderID string
	Err     error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("order %s committed to customer history only: %v", e.OrderID, e.Err)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }
