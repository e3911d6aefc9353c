package main

import (
	"comebookus/src/db"
	"comebookus/src/models"
	"comebookus/src/types"
	"comebookus/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func clientHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/clients", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var clients []models.Client
			if err := db.
				Model(&models.Client{}).
				Where("user_id = ?", userId).
				Order("created_at desc").
				Limit(500).
				Find(&clients).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": clients, "count": len(clients)})
		}).
		GET("/clients/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var client models.Client
			if err := db.
				Model(&models.Client{}).
				Where(&models.Client{ID: params.ID, UserID: userId}).
				Preload("Bookings", func(q *gorm.DB) *gorm.DB { return q.Order("start_time desc").Limit(50) }).
				First(&client).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "CLIENT_NOT_FOUND"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": client})
		}).
		GET("/dashboard/stats", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			stats, err := utils.GetDashboardStats(userId)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": stats})
		})
	return g
}
