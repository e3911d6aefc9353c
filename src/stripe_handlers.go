package main

import (
	"comebookus/src/common"
	"comebookus/src/db"
	"comebookus/src/models"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// stripeWebhookRoute receives payment events. Delivery is at-least-once; the
// scheduling transitions are idempotent so duplicates fall through harmlessly.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			log.Printf("[PaymentIntent] ID: %s %s\n", pi.ID, pi.Status)
			bookingID, ok := bookingForPaymentIntent(&pi)
			if !ok {
				break
			}
			sched := common.GetBookingScheduler()
			if _, err := sched.ConfirmPayment(ctx.Request.Context(), bookingID); err != nil {
				log.Printf("Error confirming payment for booking %d: %s\n", bookingID, err.Error())
			}
		case "payment_intent.payment_failed", "payment_intent.canceled":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			log.Printf("[PaymentIntent] ID: %s %s\n", pi.ID, pi.Status)
			bookingID, ok := bookingForPaymentIntent(&pi)
			if !ok {
				break
			}
			sched := common.GetBookingScheduler()
			if _, err := sched.FailPayment(ctx.Request.Context(), bookingID); err != nil {
				log.Printf("Error failing payment for booking %d: %s\n", bookingID, err.Error())
			}
		default:
			log.Printf("[StripeEvent] Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

// bookingForPaymentIntent resolves the booking a payment intent belongs to,
// preferring the stored reference over the metadata echo.
func bookingForPaymentIntent(pi *stripe.PaymentIntent) (uint, bool) {
	db := db.GetDb()
	var booking models.Booking
	err := db.
		Model(&models.Booking{}).
		Where("payment_intent_id = ?", pi.ID).
		Select("id").
		First(&booking).
		Error
	if err == nil {
		return booking.ID, true
	}
	id := pi.Metadata["booking_id"]
	if id == "" {
		log.Printf("Could not resolve booking for PaymentIntent %s\n", pi.ID)
		return 0, false
	}
	atoi, err := strconv.Atoi(id)
	if err != nil || atoi < 1 {
		log.Printf("Could not parse booking id for PaymentIntent %s: %v\n", pi.ID, err)
		return 0, false
	}
	return uint(atoi), true
}
