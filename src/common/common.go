package common

import (
	"comebookus/src/config"
	"comebookus/src/db"
	"comebookus/src/scheduling"
	"time"
)

var bookingScheduler *scheduling.Scheduler

// GetBookingScheduler returns the shared scheduling service. Every mutation of
// a provider's holding bookings goes through this instance so the per-provider
// serialization actually serializes.
func GetBookingScheduler() *scheduling.Scheduler {
	if bookingScheduler != nil {
		return bookingScheduler
	}
	store := scheduling.NewGormStore(db.GetDb())
	bookingScheduler = scheduling.NewScheduler(store, &BookingNotifier{}, config.RESERVE_LOCK_WAIT_SECONDS*time.Second)
	return bookingScheduler
}

// NewBookingScheduler Replace the scheduler instance, used by tests
func NewBookingScheduler(s *scheduling.Scheduler) {
	bookingScheduler = s
}
