package main

import (
	"comebookus/src/common"
	"comebookus/src/db"
	"comebookus/src/lib"
	"comebookus/src/models"
	"comebookus/src/scheduling"
	"comebookus/src/types"
	"comebookus/src/utils"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func scheduleErrorResponse(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidInterval):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INTERVAL"})
	case errors.Is(err, scheduling.ErrServiceNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "SERVICE_NOT_FOUND"})
	case errors.Is(err, scheduling.ErrBookingNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "BOOKING_NOT_FOUND"})
	case errors.Is(err, scheduling.ErrSlotTaken):
		ctx.JSON(http.StatusConflict, gin.H{"error": "SLOT_TAKEN"})
	case errors.Is(err, scheduling.ErrBusy):
		ctx.Header("Retry-After", "1")
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "BUSY"})
	default:
		log.Printf("Error while processing booking request: %s\n", err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}

// publicBookingRoutes carries the guest-facing create endpoint; no account
// needed, a client record is upserted from the email on the request.
func publicBookingRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			startTime, err := utils.ParseBookingTime(body.StartTime)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			db := db.GetDb()
			var svc models.Service
			if err := db.
				Model(&models.Service{}).
				Where(&models.Service{ID: body.ServiceID}).
				First(&svc).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "SERVICE_NOT_FOUND"})
				return
			}

			var clientID *uint
			if err := db.Transaction(func(tx *gorm.DB) error {
				client, err := utils.UpsertClient(tx, svc.UserID, body.ClientEmail, body.ClientName, body.ClientPhone)
				if err != nil {
					return err
				}
				clientID = &client.ID
				return nil
			}); err != nil {
				log.Printf("Error upserting client %s: %s\n", body.ClientEmail, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}

			requiresPayment := svc.Price > 0
			if body.RequiresPayment != nil {
				requiresPayment = *body.RequiresPayment
			}
			sched := common.GetBookingScheduler()
			booking, err := sched.Reserve(ctx.Request.Context(), scheduling.ReserveInput{
				ProviderID:      svc.UserID,
				ServiceID:       svc.ID,
				StartTime:       startTime,
				ClientID:        clientID,
				ClientEmail:     body.ClientEmail,
				ClientName:      body.ClientName,
				ClientPhone:     body.ClientPhone,
				Notes:           body.Notes,
				RequiresPayment: requiresPayment,
			})
			if err != nil {
				scheduleErrorResponse(ctx, err)
				return
			}

			resp := types.APIResponseBooking{
				ID:            booking.ID,
				ServiceID:     booking.ServiceID,
				Status:        booking.Status,
				PaymentStatus: booking.PaymentStatus,
				StartTime:     booking.StartTime,
				EndTime:       booking.EndTime,
				Amount:        booking.Amount,
				ClientEmail:   booking.ClientEmail,
			}
			if booking.Status == types.BOOKING_PENDING {
				pi, err := lib.CreateBookingPaymentIntent(booking.ID, booking.Amount, booking.Currency, booking.ClientEmail)
				if err != nil {
					log.Printf("Error creating payment intent for booking %d: %s\n", booking.ID, err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "payment setup failed"})
					return
				}
				if err := db.Transaction(func(tx *gorm.DB) error {
					return tx.
						Model(&models.Booking{}).
						Where(&models.Booking{ID: booking.ID}).
						Updates(&models.Booking{PaymentIntentId: &pi.ID}).
						Error
				}); err != nil {
					log.Printf("Error saving payment intent %s: %s\n", pi.ID, err.Error())
				}
				resp.ClientSecret = &pi.ClientSecret
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": resp})
		})
	return g
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var filters types.BookingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookings, err := utils.GetProviderBookings(userId, &filters)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var booking models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: params.ID, UserID: userId}).
				Preload("Service").
				Preload("Client").
				First(&booking).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "BOOKING_NOT_FOUND"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			newStart, err := utils.ParseBookingTime(body.StartTime)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if !ownsBooking(params.ID, userId) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "BOOKING_NOT_FOUND"})
				return
			}

			sched := common.GetBookingScheduler()
			booking, err := sched.Reschedule(ctx.Request.Context(), params.ID, newStart)
			if err != nil {
				scheduleErrorResponse(ctx, err)
				return
			}
			if body.Notes != nil {
				db := db.GetDb()
				if err := db.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: booking.ID}).
					Update("notes", *body.Notes).
					Error; err != nil {
					log.Printf("Error updating notes for booking %d: %s\n", booking.ID, err.Error())
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if !ownsBooking(params.ID, userId) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "BOOKING_NOT_FOUND"})
				return
			}
			sched := common.GetBookingScheduler()
			if _, err := sched.Cancel(ctx.Request.Context(), params.ID); err != nil {
				scheduleErrorResponse(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

func ownsBooking(bookingID, userId uint) bool {
	db := db.GetDb()
	var count int64
	if err := db.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: bookingID, UserID: userId}).
		Count(&count).
		Error; err != nil {
		log.Printf("Error checking booking %d ownership: %s\n", bookingID, err.Error())
		return false
	}
	return count > 0
}
