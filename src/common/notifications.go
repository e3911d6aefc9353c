package common

import (
	"comebookus/src/db"
	"comebookus/src/lib"
	"comebookus/src/lib/mailer"
	"comebookus/src/models"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tidwall/gjson"
	"github.com/wneessen/go-mail"
)

// BookingNotifier implements scheduling.Notifier by turning lifecycle events
// into queued emails. Failures are logged and swallowed: a booking is correct
// whether or not its notification got out.
type BookingNotifier struct{}

func (n *BookingNotifier) BookingConfirmed(booking *models.Booking) {
	provider, svc, err := bookingContext(booking)
	if err != nil {
		log.Printf("Could not load context for booking %d: %s\n", booking.ID, err.Error())
		return
	}
	when := booking.StartTime.Format("Monday, Jan 2 2006 at 15:04")
	input := &lib.SendMailInput{
		FromName: provider.BusinessName,
		To:       []string{booking.ClientEmail},
		ReplyTo:  provider.Email,
		Subject:  fmt.Sprintf("Booking confirmed: %s on %s", svc.Name, when),
		Body:     fmt.Sprintf("Hi %s,\n\nYour %s appointment with %s is confirmed for %s.\n\nSee you then!", booking.ClientName, svc.Name, provider.BusinessName, when),
	}
	if err := mailer.NewMailerMessage(input); err != nil {
		log.Printf("Error queueing confirmation for booking %d: %s\n", booking.ID, err.Error())
	}
}

func (n *BookingNotifier) BookingCanceled(booking *models.Booking) {
	provider, svc, err := bookingContext(booking)
	if err != nil {
		log.Printf("Could not load context for booking %d: %s\n", booking.ID, err.Error())
		return
	}
	when := booking.StartTime.Format("Monday, Jan 2 2006 at 15:04")
	input := &lib.SendMailInput{
		FromName: provider.BusinessName,
		To:       []string{booking.ClientEmail},
		ReplyTo:  provider.Email,
		Subject:  fmt.Sprintf("Booking canceled: %s on %s", svc.Name, when),
		Body:     fmt.Sprintf("Hi %s,\n\nYour %s appointment with %s on %s has been canceled.", booking.ClientName, svc.Name, provider.BusinessName, when),
	}
	if err := mailer.NewMailerMessage(input); err != nil {
		log.Printf("Error queueing cancellation for booking %d: %s\n", booking.ID, err.Error())
	}
}

func bookingContext(booking *models.Booking) (*models.User, *models.Service, error) {
	db := db.GetDb()
	var provider models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{ID: booking.UserID}).
		First(&provider).
		Error; err != nil {
		return nil, nil, err
	}
	var svc models.Service
	if err := db.
		Model(&models.Service{}).
		Where(&models.Service{ID: booking.ServiceID}).
		First(&svc).
		Error; err != nil {
		return nil, nil, err
	}
	return &provider, &svc, nil
}

// NotificationsConsumer drains the mail queue and delivers over SMTP.
// Runs for the life of the process; started from boot.
func NotificationsConsumer() {
	log.Println("[notifications] Listening for messages...")
	for body := range mailer.Queue() {
		sbody := string(body)
		if !gjson.Valid(sbody) {
			log.Println("[notifications] Received invalid json body. Skipping")
			continue
		}
		to := gjson.Get(sbody, "to.0").String()
		if to == "" {
			log.Println("[notifications] Message without recipient. Skipping")
			continue
		}
		msgId := gjson.Get(sbody, "id").String()
		if err := deliver(sbody, to); err != nil {
			log.Printf("[notifications] Delivery of %s to %s failed: %s\n", msgId, to, err.Error())
		}
	}
}

func deliver(sbody, to string) error {
	client, err := lib.GetSMTPClient()
	if err != nil {
		return err
	}
	msg := mail.NewMsg()
	if err := msg.From(gjson.Get(sbody, "from").String()); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	if replyTo := gjson.Get(sbody, "reply-to").String(); replyTo != "" {
		msg.ReplyTo(replyTo)
	}
	msg.Subject(gjson.Get(sbody, "subject").String())
	if html := gjson.Get(sbody, "html").String(); html != "" {
		msg.SetBodyString(mail.TypeTextHTML, html)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, gjson.Get(sbody, "body").String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return client.DialAndSendWithContext(ctx, msg)
}
