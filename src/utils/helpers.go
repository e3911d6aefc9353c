package utils

import (
	"comebookus/src/config"
	"comebookus/src/db"
	"comebookus/src/models"
	"comebookus/src/scheduling"
	"comebookus/src/types"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// ParseBookingTime parses a request datetime and normalizes it to UTC.
func ParseBookingTime(value string) (time.Time, error) {
	t, err := time.Parse(config.TIME_PARSE_FORMAT, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// UpsertClient records the guest on the provider's client list, keyed by
// email. Repeat bookings refresh the stored name and phone.
func UpsertClient(tx *gorm.DB, providerID uint, email, name, phone string) (*models.Client, error) {
	client := models.Client{
		UserID: providerID,
		Email:  email,
		Name:   name,
		Phone:  phone,
	}
	err := tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "updated_at"}),
		}).
		Create(&client).
		Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		if err := tx.
			Where(&models.Client{UserID: providerID, Email: email}).
			First(&client).
			Error; err != nil {
			return nil, err
		}
	}
	return &client, nil
}

func GetProviderBookings(providerID uint, filters *types.BookingQueryFilters) ([]models.Booking, error) {
	db := db.GetDb()
	q := db.
		Model(&models.Booking{}).
		Where("user_id = ?", providerID).
		Preload("Service").
		Preload("Client").
		Order("start_time asc")
	if filters != nil {
		if filters.Status != "" {
			q = q.Where("status = ?", filters.Status)
		}
		if filters.From != "" {
			if from, err := ParseBookingTime(filters.From); err == nil {
				q = q.Where("start_time >= ?", from)
			}
		}
		if filters.To != "" {
			if to, err := ParseBookingTime(filters.To); err == nil {
				q = q.Where("start_time < ?", to)
			}
		}
	}
	var bookings []models.Booking
	if err := q.Limit(500).Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func GetDashboardStats(providerID uint) (*types.DashboardStats, error) {
	db := db.GetDb()
	var stats types.DashboardStats
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Booking{}).
			Where("user_id = ?", providerID).
			Count(&stats.TotalBookings).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("user_id = ?", providerID).
			Where("status IN ?", []string{"pending", "confirmed"}).
			Where("start_time >= ?", time.Now().UTC()).
			Count(&stats.UpcomingBookings).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Client{}).
			Where("user_id = ?", providerID).
			Count(&stats.TotalClients).
			Error; err != nil {
			return err
		}
		var revenue int64
		if err := tx.
			Model(&models.Booking{}).
			Where("user_id = ?", providerID).
			Where("payment_status = ?", types.PAYMENT_PAID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&revenue).
			Error; err != nil {
			return err
		}
		stats.Revenue = revenue
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

const (
	dayOpenHour  = 9
	dayCloseHour = 17
)

// AvailableSlots lists the free slots for a service on one day, stepping by
// the service duration. Slots whose effective interval (duration plus buffer)
// collides with a holding booking are dropped.
func AvailableSlots(providerID uint, svc *models.Service, day time.Time) ([]types.TimeSlot, error) {
	db := db.GetDb()
	var holding []models.Booking
	err := db.
		Model(&models.Booking{}).
		Where("user_id = ?", providerID).
		Where("status IN ?", []string{"pending", "confirmed"}).
		Where("start_time >= ? AND start_time < ?", day.AddDate(0, 0, -1), day.AddDate(0, 0, 2)).
		Find(&holding).
		Error
	if err != nil {
		return nil, err
	}

	duration := time.Duration(svc.Duration) * time.Minute
	buffer := time.Duration(svc.BufferTime) * time.Minute
	open := time.Date(day.Year(), day.Month(), day.Day(), dayOpenHour, 0, 0, 0, time.UTC)
	closeAt := time.Date(day.Year(), day.Month(), day.Day(), dayCloseHour, 0, 0, 0, time.UTC)

	slots := []types.TimeSlot{}
	for start := open; !start.Add(duration).After(closeAt); start = start.Add(duration) {
		if start.Before(time.Now().UTC()) {
			continue
		}
		end := start.Add(duration)
		effectiveEnd := end.Add(buffer)
		free := true
		for i := range holding {
			b := &holding[i]
			if scheduling.Overlaps(start, effectiveEnd, b.StartTime, b.EffectiveEnd()) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, types.TimeSlot{StartTime: start, EndTime: end})
		}
	}
	return slots, nil
}
