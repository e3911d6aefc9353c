package controllers

import (
	"comebookus/src/db"
	"comebookus/src/models"
	"comebookus/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func AccountsGetProfile(ctx *gin.Context) (*models.User, int, error) {
	userId := ctx.GetUint("id")
	var user models.User
	db := db.GetDb()
	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
			return err
		}
		return nil
	}); err != nil {
		return nil, http.StatusNotFound, err
	}
	return &user, http.StatusOK, nil
}

// AccountsUpdateProfile applies profile edits. A business name change refreshes
// the public booking-page slug, kept unique by suffixing the user id.
func AccountsUpdateProfile(ctx *gin.Context, body *types.UpdateProfileRequestBody) (*models.User, int, error) {
	userId := ctx.GetUint("id")
	var user models.User
	db := db.GetDb()
	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
			return err
		}
		updates := models.User{}
		if body.Name != nil {
			updates.Name = *body.Name
		}
		if body.BusinessName != nil {
			updates.BusinessName = *body.BusinessName
			updates.Slug = slug.Make(*body.BusinessName)
			var taken int64
			if err := tx.
				Model(&models.User{}).
				Where("slug = ? AND id <> ?", updates.Slug, userId).
				Count(&taken).
				Error; err != nil {
				return err
			}
			if taken > 0 {
				updates.Slug = slug.Make(*body.BusinessName) + "-" + slug.Make(user.UID)
			}
		}
		if body.Phone != nil {
			updates.Phone = *body.Phone
		}
		if body.Timezone != nil {
			updates.Timezone = *body.Timezone
		}
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{ID: userId}).
			Updates(&updates).
			Error; err != nil {
			return err
		}
		if body.EmailReminders != nil {
			if err := tx.
				Model(&models.User{}).
				Where(&models.User{ID: userId}).
				Update("email_reminders", *body.EmailReminders).
				Error; err != nil {
				return err
			}
		}
		if body.SmsReminders != nil {
			if err := tx.
				Model(&models.User{}).
				Where(&models.User{ID: userId}).
				Update("sms_reminders", *body.SmsReminders).
				Error; err != nil {
				return err
			}
		}
		return tx.Where(&models.User{ID: userId}).First(&user).Error
	}); err != nil {
		log.Printf("Error updating profile for user %d: %s\n", userId, err.Error())
		return nil, http.StatusBadRequest, err
	}
	return &user, http.StatusOK, nil
}
