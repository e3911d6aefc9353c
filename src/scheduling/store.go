package scheduling

import (
	"comebookus/src/models"
	"context"

	"gorm.io/gorm"
)

// Store is the persistence surface the scheduler needs. The production
// implementation is GORM-backed; tests use an in-memory fake.
type Store interface {
	// Transaction runs fn against a store whose writes commit atomically.
	Transaction(ctx context.Context, fn func(Store) error) error
	GetService(ctx context.Context, id uint) (*models.Service, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	// HoldingBookings returns the provider's bookings whose status still holds
	// a calendar slot, excluding excludeID when non-zero.
	HoldingBookings(ctx context.Context, providerID, excludeID uint) ([]models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	SaveBooking(ctx context.Context, booking *models.Booking) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	err := s.db.WithContext(ctx).
		Model(&models.Service{}).
		Where(&models.Service{ID: id}).
		First(&svc).
		Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *GormStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where(&models.Booking{ID: id}).
		First(&booking).
		Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *GormStore) HoldingBookings(ctx context.Context, providerID, excludeID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	q := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("user_id = ?", providerID).
		Where("status IN ?", []string{"pending", "confirmed"})
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *GormStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Create(booking).Error
}

func (s *GormStore) SaveBooking(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Save(booking).Error
}
