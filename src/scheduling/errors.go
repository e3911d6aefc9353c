package scheduling

import "errors"

var (
	// ErrInvalidInterval means the candidate interval is zero or negative length.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrServiceNotFound means the referenced service is missing or inactive.
	ErrServiceNotFound = errors.New("service not found")
	// ErrSlotTaken means a holding booking already overlaps the candidate interval.
	ErrSlotTaken = errors.New("slot taken")
	// ErrBusy means the provider's reservation lock could not be acquired in time.
	// Callers may retry with backoff.
	ErrBusy = errors.New("provider busy")
	// ErrBookingNotFound means the referenced booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")
)
