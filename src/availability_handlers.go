package main

import (
	"comebookus/src/common"
	"comebookus/src/db"
	"comebookus/src/models"
	"comebookus/src/types"
	"comebookus/src/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// availabilityRoutes is the public surface behind a provider's booking page.
func availabilityRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/availability/:slug", func(ctx *gin.Context) {
			var params struct {
				Slug string `uri:"slug" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query types.AvailabilityQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			day, err := time.Parse("2006-01-02", query.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			db := db.GetDb()
			var provider models.User
			if err := db.
				Model(&models.User{}).
				Where(&models.User{Slug: params.Slug}).
				First(&provider).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "PROVIDER_NOT_FOUND"})
				return
			}
			var svc models.Service
			if err := db.
				Model(&models.Service{}).
				Where(&models.Service{ID: query.ServiceID, UserID: provider.ID}).
				First(&svc).
				Error; err != nil || !svc.IsActive {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "SERVICE_NOT_FOUND"})
				return
			}

			slots, err := utils.AvailableSlots(provider.ID, &svc, day)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": slots, "count": len(slots)})
		}).
		GET("/availability/:slug/check", func(ctx *gin.Context) {
			var params struct {
				Slug string `uri:"slug" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query struct {
				Start string `form:"start" binding:"required"`
				End   string `form:"end" binding:"required"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			start, err := utils.ParseBookingTime(query.Start)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			end, err := utils.ParseBookingTime(query.End)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			db := db.GetDb()
			var provider models.User
			if err := db.
				Model(&models.User{}).
				Where(&models.User{Slug: params.Slug}).
				First(&provider).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "PROVIDER_NOT_FOUND"})
				return
			}

			sched := common.GetBookingScheduler()
			free, err := sched.CheckAvailability(ctx.Request.Context(), provider.ID, start, end, 0)
			if err != nil {
				scheduleErrorResponse(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"available": free})
		})
	return g
}
