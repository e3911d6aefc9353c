package scheduling

import (
	"comebookus/src/models"
	"comebookus/src/types"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memStore struct {
	mu       sync.Mutex
	nextID   uint
	services map[uint]models.Service
	bookings map[uint]models.Booking
}

func newMemStore() *memStore {
	return &memStore{
		services: make(map[uint]models.Service),
		bookings: make(map[uint]models.Booking),
	}
}

func (s *memStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *memStore) GetService(ctx context.Context, id uint) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &svc, nil
}

func (s *memStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (s *memStore) HoldingBookings(ctx context.Context, providerID, excludeID uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID != providerID || b.ID == excludeID {
			continue
		}
		if b.Holding() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	booking.ID = s.nextID
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *memStore) SaveBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *memStore) addService(svc models.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []uint
	canceled  []uint
	events    chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan string, 32)}
}

func (n *recordingNotifier) BookingConfirmed(b *models.Booking) {
	n.mu.Lock()
	n.confirmed = append(n.confirmed, b.ID)
	n.mu.Unlock()
	n.events <- "confirmed"
}

func (n *recordingNotifier) BookingCanceled(b *models.Booking) {
	n.mu.Lock()
	n.canceled = append(n.canceled, b.ID)
	n.mu.Unlock()
	n.events <- "canceled"
}

func (n *recordingNotifier) wait(t *testing.T, event string) {
	t.Helper()
	select {
	case got := <-n.events:
		assert.Equal(t, event, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s notification", event)
	}
}

func (n *recordingNotifier) confirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed)
}

func newTestScheduler() (*Scheduler, *memStore, *recordingNotifier) {
	store := newMemStore()
	notifier := newRecordingNotifier()
	sched := NewScheduler(store, notifier, 200*time.Millisecond)
	return sched, store, notifier
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint before", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
		{"disjoint after", at(13, 0), at(14, 0), at(11, 0), at(12, 0), false},
		{"adjacent at start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"adjacent at end", at(12, 0), at(13, 0), at(11, 0), at(12, 0), false},
		{"overlap at start", at(10, 30), at(11, 30), at(11, 0), at(12, 0), true},
		{"overlap at end", at(11, 30), at(12, 30), at(11, 0), at(12, 0), true},
		{"contained", at(11, 15), at(11, 45), at(11, 0), at(12, 0), true},
		{"containing", at(10, 0), at(13, 0), at(11, 0), at(12, 0), true},
		{"identical", at(11, 0), at(12, 0), at(11, 0), at(12, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
		})
	}
}

func seedConfirmedBooking(store *memStore, providerID uint, start, end time.Time, buffer uint) {
	store.CreateBooking(context.Background(), &models.Booking{
		UserID:        providerID,
		ServiceID:     1,
		StartTime:     start,
		EndTime:       end,
		BufferTime:    buffer,
		Status:        types.BOOKING_CONFIRMED,
		PaymentStatus: types.PAYMENT_PAID,
	})
}

func TestCheckAvailabilityAdjacency(t *testing.T) {
	sched, store, _ := newTestScheduler()
	seedConfirmedBooking(store, 1, at(14, 0), at(15, 0), 0)

	free, err := sched.CheckAvailability(context.Background(), 1, at(15, 0), at(16, 0), 0)
	require.NoError(t, err)
	assert.True(t, free, "back-to-back slot should be free")

	free, err = sched.CheckAvailability(context.Background(), 1, at(13, 0), at(14, 0), 0)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestCheckAvailabilityContainment(t *testing.T) {
	sched, store, _ := newTestScheduler()
	seedConfirmedBooking(store, 1, at(14, 0), at(15, 0), 0)

	// candidate inside the existing booking
	free, err := sched.CheckAvailability(context.Background(), 1, at(14, 30), at(14, 45), 0)
	require.NoError(t, err)
	assert.False(t, free)

	// candidate swallowing the existing booking
	free, err = sched.CheckAvailability(context.Background(), 1, at(13, 0), at(16, 0), 0)
	require.NoError(t, err)
	assert.False(t, free)
}

func TestCheckAvailabilityInvalidInterval(t *testing.T) {
	sched, _, _ := newTestScheduler()

	_, err := sched.CheckAvailability(context.Background(), 1, at(14, 0), at(14, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = sched.CheckAvailability(context.Background(), 1, at(15, 0), at(14, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestCheckAvailabilityIgnoresOtherProviders(t *testing.T) {
	sched, store, _ := newTestScheduler()
	seedConfirmedBooking(store, 2, at(14, 0), at(15, 0), 0)

	free, err := sched.CheckAvailability(context.Background(), 1, at(14, 0), at(15, 0), 0)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestReserveConfirmsWhenNoPayment(t *testing.T) {
	sched, store, notifier := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{
		ProviderID:  1,
		ServiceID:   1,
		StartTime:   at(14, 0),
		ClientEmail: "client@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
	assert.Equal(t, types.PAYMENT_PAID, booking.PaymentStatus)
	assert.Equal(t, at(15, 0), booking.EndTime)
	notifier.wait(t, "confirmed")
}

func TestReservePendingWhenPaymentRequired(t *testing.T) {
	sched, store, notifier := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, Price: 5000, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{
		ProviderID:      1,
		ServiceID:       1,
		StartTime:       at(14, 0),
		ClientEmail:     "client@example.com",
		RequiresPayment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_PENDING, booking.Status)
	assert.Equal(t, types.PAYMENT_PENDING, booking.PaymentStatus)
	assert.Equal(t, int64(5000), booking.Amount)
	assert.Equal(t, 0, notifier.confirmedCount(), "no confirmation before payment")
}

func TestReserveUnknownOrInactiveService(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 2, UserID: 1, Duration: 30, IsActive: false})
	store.addService(models.Service{ID: 3, UserID: 9, Duration: 30, IsActive: true})

	_, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(10, 0)})
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 2, StartTime: at(10, 0)})
	assert.ErrorIs(t, err, ErrServiceNotFound)

	// service owned by a different provider
	_, err = sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 3, StartTime: at(10, 0)})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestReserveConflictLeavesNoPartialState(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})
	seedConfirmedBooking(store, 1, at(14, 0), at(15, 0), 0)

	_, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 30)})
	assert.ErrorIs(t, err, ErrSlotTaken)

	holding, err := store.HoldingBookings(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, holding, 1)
}

func TestReserveBufferExtendsBlockedInterval(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 30, BufferTime: 15, IsActive: true})

	first, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(10, 0)})
	require.NoError(t, err)
	// persisted end excludes the buffer; the held interval does not
	assert.Equal(t, at(10, 30), first.EndTime)
	assert.Equal(t, at(10, 45), first.EffectiveEnd())

	_, err = sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(10, 30)})
	assert.ErrorIs(t, err, ErrSlotTaken, "10:30 falls inside the buffer")

	_, err = sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(10, 45)})
	assert.NoError(t, err, "slot directly after the buffer is free")
}

func TestReserveConcurrentOverlappingAttempts(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	const n = 8
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			// mutually overlapping candidates, 15 minutes apart
			_, err := sched.Reserve(context.Background(), ReserveInput{
				ProviderID:  1,
				ServiceID:   1,
				StartTime:   at(14, 0).Add(time.Duration(offset) * 15 * time.Minute / 2),
				ClientEmail: "race@example.com",
			})
			results <- err
		}(i % 2)
	}
	wg.Wait()
	close(results)

	var success, conflict int
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrSlotTaken):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success, "exactly one concurrent attempt may win")
	assert.Equal(t, n-1, conflict)
}

func TestReserveBusyWhenLockHeld(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	require.NoError(t, sched.locks.Acquire(context.Background(), 1))
	defer sched.locks.Release(1)

	_, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 0)})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	sched, store, notifier := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, Price: 5000, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{
		ProviderID:      1,
		ServiceID:       1,
		StartTime:       at(14, 0),
		RequiresPayment: true,
	})
	require.NoError(t, err)

	first, err := sched.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CONFIRMED, first.Status)
	assert.Equal(t, types.PAYMENT_PAID, first.PaymentStatus)
	notifier.wait(t, "confirmed")

	// duplicate webhook delivery returns the same state, no error, no re-notify
	second, err := sched.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CONFIRMED, second.Status)
	assert.Equal(t, types.PAYMENT_PAID, second.PaymentStatus)
	assert.Equal(t, 1, notifier.confirmedCount())
}

func TestConfirmPaymentUnknownBooking(t *testing.T) {
	sched, _, _ := newTestScheduler()
	_, err := sched.ConfirmPayment(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestFailPaymentReleasesSlot(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, Price: 5000, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{
		ProviderID:      1,
		ServiceID:       1,
		StartTime:       at(14, 0),
		RequiresPayment: true,
	})
	require.NoError(t, err)

	failed, err := sched.FailPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CANCELED, failed.Status)
	assert.Equal(t, types.PAYMENT_FAILED, failed.PaymentStatus)

	// repeat delivery is a no-op
	again, err := sched.FailPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CANCELED, again.Status)

	// the slot is bookable again
	_, err = sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 0)})
	assert.NoError(t, err)
}

func TestFailPaymentDoesNotTouchConfirmed(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, Price: 5000, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{
		ProviderID:      1,
		ServiceID:       1,
		StartTime:       at(14, 0),
		RequiresPayment: true,
	})
	require.NoError(t, err)

	_, err = sched.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)

	// out-of-order failure event after success must not flip the state back
	b, err := sched.FailPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CONFIRMED, b.Status)
	assert.Equal(t, types.PAYMENT_PAID, b.PaymentStatus)
}

func TestCancelReleasesSlot(t *testing.T) {
	sched, store, notifier := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 0)})
	require.NoError(t, err)
	notifier.wait(t, "confirmed")

	canceled, err := sched.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CANCELED, canceled.Status)
	notifier.wait(t, "canceled")

	// canceling again is a no-op
	_, err = sched.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)

	free, err := sched.CheckAvailability(context.Background(), 1, at(14, 0), at(15, 0), 0)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestRescheduleExcludesOwnInterval(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 0)})
	require.NoError(t, err)

	// shifting within its own old interval must not conflict with itself
	moved, err := sched.Reschedule(context.Background(), booking.ID, at(14, 30))
	require.NoError(t, err)
	assert.Equal(t, at(14, 30), moved.StartTime)
	assert.Equal(t, at(15, 30), moved.EndTime)
}

func TestRescheduleConflictsWithOthers(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	first, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 0)})
	require.NoError(t, err)
	_, err = sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(16, 0)})
	require.NoError(t, err)

	_, err = sched.Reschedule(context.Background(), first.ID, at(16, 30))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestRescheduleCanceledBooking(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 60, IsActive: true})

	booking, err := sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: at(14, 0)})
	require.NoError(t, err)
	_, err = sched.Cancel(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = sched.Reschedule(context.Background(), booking.ID, at(16, 0))
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// The no-overlap invariant across a volley of reservation attempts: whatever
// subset succeeds, the surviving holding intervals are pairwise disjoint.
func TestHoldingSetStaysDisjoint(t *testing.T) {
	sched, store, _ := newTestScheduler()
	store.addService(models.Service{ID: 1, UserID: 1, Duration: 45, BufferTime: 15, IsActive: true})

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := at(8, 0).Add(time.Duration(i) * 20 * time.Minute)
			sched.Reserve(context.Background(), ReserveInput{ProviderID: 1, ServiceID: 1, StartTime: start})
		}(i)
	}
	wg.Wait()

	holding, err := store.HoldingBookings(context.Background(), 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, holding)
	for i := range holding {
		for j := range holding {
			if i == j {
				continue
			}
			a, b := &holding[i], &holding[j]
			assert.False(t,
				Overlaps(a.StartTime, a.EffectiveEnd(), b.StartTime, b.EffectiveEnd()),
				"bookings %d and %d overlap", a.ID, b.ID)
		}
	}
}
