package common

import (
	"comebookus/src/config"
	"comebookus/src/db"
	"comebookus/src/lib"
	"comebookus/src/lib/mailer"
	"comebookus/src/models"
	"comebookus/src/types"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// SendBookingReminders emails clients of confirmed bookings that start within
// the reminder window and have not been reminded yet. Runs on a cron tick;
// marking reminder_sent before a slow delivery is acceptable since a missed
// reminder beats a duplicate one.
func SendBookingReminders() {
	db := db.GetDb()
	now := time.Now().UTC()
	windowEnd := now.Add(config.REMINDER_LEAD_HOURS * time.Hour)

	var due []models.Booking
	err := db.
		Model(&models.Booking{}).
		Where("status = ?", types.BOOKING_CONFIRMED).
		Where("reminder_sent = ?", false).
		Where("start_time BETWEEN ? AND ?", now, windowEnd).
		Preload("Service").
		Limit(100).
		Find(&due).
		Error
	if err != nil {
		log.Printf("Error retrieving bookings due a reminder: %s\n", err.Error())
		return
	}
	if len(due) == 0 {
		return
	}
	log.Printf("Found %d bookings due a reminder", len(due))

	for i := range due {
		booking := &due[i]
		var provider models.User
		if err := db.
			Model(&models.User{}).
			Where(&models.User{ID: booking.UserID}).
			First(&provider).
			Error; err != nil {
			log.Printf("Could not load provider %d: %s\n", booking.UserID, err.Error())
			continue
		}
		if !provider.EmailReminders {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: booking.ID}).
				Update("reminder_sent", true).
				Error
		})
		if err != nil {
			log.Printf("Error marking reminder for booking %d: %s\n", booking.ID, err.Error())
			continue
		}

		serviceName := "appointment"
		if booking.Service != nil {
			serviceName = booking.Service.Name
		}
		when := booking.StartTime.Format("Monday, Jan 2 2006 at 15:04")
		input := &lib.SendMailInput{
			FromName: provider.BusinessName,
			To:       []string{booking.ClientEmail},
			ReplyTo:  provider.Email,
			Subject:  fmt.Sprintf("Reminder: %s on %s", serviceName, when),
			Body:     fmt.Sprintf("Hi %s,\n\nThis is a reminder of your %s with %s on %s.", booking.ClientName, serviceName, provider.BusinessName, when),
		}
		if err := mailer.NewMailerMessage(input); err != nil {
			log.Printf("Error queueing reminder for booking %d: %s\n", booking.ID, err.Error())
		}
	}
}

// CompleteElapsedBookings sweeps confirmed bookings whose end has passed into
// the completed state. Completion only shrinks the set of holding bookings, so
// it cannot violate the no-overlap invariant and stays outside the provider
// locks.
func CompleteElapsedBookings() {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Booking{}).
			Where("status = ?", types.BOOKING_CONFIRMED).
			Where("end_time < ?", time.Now().UTC()).
			Update("status", types.BOOKING_COMPLETED).
			Error
	})
	if err != nil {
		log.Printf("Error while completing elapsed bookings: %s\n", err.Error())
	}
}
