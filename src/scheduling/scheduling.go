// Package scheduling enforces the one invariant the rest of the API leans on:
// for any provider, no two holding bookings (pending or confirmed) may overlap.
// Every mutation of a provider's holding set goes through this package.
package scheduling

import (
	"comebookus/src/models"
	"comebookus/src/types"
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// Notifier receives booking lifecycle events. Dispatch is asynchronous and
// best-effort: a notification failure never fails or rolls back a reservation.
type Notifier interface {
	BookingConfirmed(booking *models.Booking)
	BookingCanceled(booking *models.Booking)
}

type Scheduler struct {
	store    Store
	notifier Notifier
	locks    providerLocks
	lockWait time.Duration
}

func NewScheduler(store Store, notifier Notifier, lockWait time.Duration) *Scheduler {
	return &Scheduler{
		store:    store,
		notifier: notifier,
		lockWait: lockWait,
	}
}

type ReserveInput struct {
	ProviderID      uint
	ServiceID       uint
	StartTime       time.Time
	ClientID        *uint
	ClientEmail     string
	ClientName      string
	ClientPhone     string
	Notes           string
	RequiresPayment bool
}

// CheckAvailability reports whether [start, end) is free on the provider's
// calendar. excludeID skips the booking being rescheduled so it cannot
// conflict with itself. Read-only; Reserve repeats this check under the
// provider lock before inserting.
func (s *Scheduler) CheckAvailability(ctx context.Context, providerID uint, start, end time.Time, excludeID uint) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidInterval
	}
	bookings, err := s.store.HoldingBookings(ctx, providerID, excludeID)
	if err != nil {
		return false, err
	}
	for i := range bookings {
		b := &bookings[i]
		if Overlaps(start, end, b.StartTime, b.EffectiveEnd()) {
			return false, nil
		}
	}
	return true, nil
}

// Reserve creates a booking for the provider if the slot is free. The
// availability check and the insert run inside one transaction while the
// provider's lock is held, so concurrent overlapping attempts resolve to
// exactly one success; the rest observe ErrSlotTaken.
func (s *Scheduler) Reserve(ctx context.Context, input ReserveInput) (*models.Booking, error) {
	svc, err := s.store.GetService(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !svc.IsActive || svc.UserID != input.ProviderID {
		return nil, ErrServiceNotFound
	}

	start := input.StartTime
	end := start.Add(time.Duration(svc.Duration) * time.Minute)
	effectiveEnd := end.Add(time.Duration(svc.BufferTime) * time.Minute)
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	if err := s.locks.Acquire(lockCtx, input.ProviderID); err != nil {
		return nil, err
	}
	defer s.locks.Release(input.ProviderID)

	status := types.BOOKING_CONFIRMED
	paymentStatus := types.PAYMENT_PAID
	if input.RequiresPayment && svc.Price > 0 {
		status = types.BOOKING_PENDING
		paymentStatus = types.PAYMENT_PENDING
	}
	booking := &models.Booking{
		UserID:        input.ProviderID,
		ServiceID:     svc.ID,
		ClientID:      input.ClientID,
		ClientEmail:   input.ClientEmail,
		ClientName:    input.ClientName,
		ClientPhone:   input.ClientPhone,
		Notes:         input.Notes,
		StartTime:     start,
		EndTime:       end,
		BufferTime:    svc.BufferTime,
		Status:        status,
		PaymentStatus: paymentStatus,
		Amount:        svc.Price,
	}

	err = s.store.Transaction(ctx, func(tx Store) error {
		holding, err := tx.HoldingBookings(ctx, input.ProviderID, 0)
		if err != nil {
			return err
		}
		for i := range holding {
			b := &holding[i]
			if Overlaps(start, effectiveEnd, b.StartTime, b.EffectiveEnd()) {
				return ErrSlotTaken
			}
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	if booking.Status == types.BOOKING_CONFIRMED {
		s.notify(func() { s.notifier.BookingConfirmed(booking) })
	}
	return booking, nil
}

// Reschedule moves a booking to a new start, re-checking availability with the
// booking's own interval excluded. Duration and buffer come from the booking's
// snapshot, not the current service definition.
func (s *Scheduler) Reschedule(ctx context.Context, bookingID uint, newStart time.Time) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	duration := booking.EndTime.Sub(booking.StartTime)
	if duration <= 0 {
		return nil, ErrInvalidInterval
	}
	if booking.Status.IsTerminal() {
		return nil, ErrBookingNotFound
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	if err := s.locks.Acquire(lockCtx, booking.UserID); err != nil {
		return nil, err
	}
	defer s.locks.Release(booking.UserID)

	newEnd := newStart.Add(duration)
	newEffectiveEnd := newEnd.Add(time.Duration(booking.BufferTime) * time.Minute)
	err = s.store.Transaction(ctx, func(tx Store) error {
		// Re-read under the lock: the booking may have been canceled since.
		b, err := tx.GetBooking(ctx, booking.ID)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return ErrBookingNotFound
		}
		holding, err := tx.HoldingBookings(ctx, b.UserID, b.ID)
		if err != nil {
			return err
		}
		for i := range holding {
			h := &holding[i]
			if Overlaps(newStart, newEffectiveEnd, h.StartTime, h.EffectiveEnd()) {
				return ErrSlotTaken
			}
		}
		b.StartTime = newStart
		b.EndTime = newEnd
		b.ReminderSent = false
		booking = b
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ConfirmPayment transitions pending -> confirmed/paid. Webhook delivery is
// at-least-once, so a repeat call returns the current state without error and
// without re-dispatching the confirmation.
func (s *Scheduler) ConfirmPayment(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var confirmed bool
	var booking *models.Booking
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		booking = b
		if b.Status != types.BOOKING_PENDING {
			return nil
		}
		b.Status = types.BOOKING_CONFIRMED
		b.PaymentStatus = types.PAYMENT_PAID
		confirmed = true
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	if confirmed {
		s.notify(func() { s.notifier.BookingConfirmed(booking) })
	}
	return booking, nil
}

// FailPayment transitions pending -> canceled/failed, releasing the slot.
// Idempotent for the same reason as ConfirmPayment.
func (s *Scheduler) FailPayment(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		booking = b
		if b.Status != types.BOOKING_PENDING {
			return nil
		}
		b.Status = types.BOOKING_CANCELED
		b.PaymentStatus = types.PAYMENT_FAILED
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel releases a holding booking's slot. Canceling an already-terminal
// booking is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var canceled bool
	var booking *models.Booking
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		booking = b
		if b.Status.IsTerminal() {
			return nil
		}
		b.Status = types.BOOKING_CANCELED
		canceled = true
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	if canceled {
		s.notify(func() { s.notifier.BookingCanceled(booking) })
	}
	return booking, nil
}

func (s *Scheduler) getBooking(ctx context.Context, id uint) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Scheduler) notify(fn func()) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Notification dispatch failed: %v\n", r)
			}
		}()
		fn()
	}()
}
