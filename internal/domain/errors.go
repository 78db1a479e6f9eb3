package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict: webhook url already registered")
	ErrInvalidURL         = errors.New("invalid webhook url")
	ErrInvalidToken       = errors.New("missing or malformed verification token")
	ErrVerificationFailed = errors.New("human verification failed")
	ErrQuotaExceeded      = errors.New("active webhook limit reached")
	ErrDeliveryTest       = errors.New("live delivery test failed")
	ErrShuttingDown       = errors.New("executor is shutting down, new work refused")
	ErrJobNotFound        = errors.New("batch job not found")
)

// DeliveryTestError wraps a failed live-delivery test with the classification
// category so handlers can report a specific, actionable message (spec §7).
type DeliveryTestError struct {
	Category Category
	Cause    error
}

func (e *DeliveryTestError) Error() string {
	if e.Cause != nil {
		return "delivery test failed (" + string(e.Category) + "): " + e.Cause.Error()
	}
	return "delivery test failed (" + string(e.Category) + ")"
}

func (e *DeliveryTestError) Unwrap() error { return ErrDeliveryTest }
