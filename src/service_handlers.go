package main

import (
	"comebookus/src/db"
	"comebookus/src/models"
	"comebookus/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func serviceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/services", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var services []models.Service
			if err := db.
				Model(&models.Service{}).
				Where("user_id = ?", userId).
				Order("created_at asc").
				Find(&services).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": services, "count": len(services)})
		}).
		POST("/services", func(ctx *gin.Context) {
			var body types.CreateServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			svc := models.Service{
				UserID:      userId,
				Name:        body.Name,
				Description: body.Description,
				Duration:    body.Duration,
				Price:       body.Price,
				BufferTime:  body.BufferTime,
				IsActive:    true,
			}
			if body.Color != "" {
				svc.Color = body.Color
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&svc).Error
			}); err != nil {
				log.Printf("Error creating service: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": svc})
		}).
		PUT("/services/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var svc models.Service
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.Service{ID: params.ID, UserID: userId}).
					First(&svc).
					Error; err != nil {
					return err
				}
				updates := map[string]any{}
				if body.Name != nil {
					updates["name"] = *body.Name
				}
				if body.Description != nil {
					updates["description"] = *body.Description
				}
				if body.Duration != nil {
					updates["duration"] = *body.Duration
				}
				if body.Price != nil {
					updates["price"] = *body.Price
				}
				if body.BufferTime != nil {
					updates["buffer_time"] = *body.BufferTime
				}
				if body.Color != nil {
					updates["color"] = *body.Color
				}
				if body.IsActive != nil {
					updates["is_active"] = *body.IsActive
				}
				if len(updates) == 0 {
					return nil
				}
				if err := tx.
					Model(&models.Service{}).
					Where(&models.Service{ID: params.ID}).
					Updates(updates).
					Error; err != nil {
					return err
				}
				return tx.Where(&models.Service{ID: params.ID}).First(&svc).Error
			})
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "SERVICE_NOT_FOUND"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": svc})
		}).
		DELETE("/services/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var svc models.Service
				if err := tx.
					Where(&models.Service{ID: params.ID, UserID: userId}).
					First(&svc).
					Error; err != nil {
					return err
				}
				var referenced int64
				if err := tx.
					Model(&models.Booking{}).
					Where("service_id = ?", svc.ID).
					Count(&referenced).
					Error; err != nil {
					return err
				}
				// services with booking history are deactivated, not dropped,
				// so past bookings keep their snapshot context
				if referenced > 0 {
					return tx.
						Model(&models.Service{}).
						Where(&models.Service{ID: svc.ID}).
						Update("is_active", false).
						Error
				}
				return tx.Delete(&svc).Error
			})
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "SERVICE_NOT_FOUND"})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
