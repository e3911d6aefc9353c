package models

import (
	"comebookus/src/types"
	"time"
)

// User is a provider: the owner of the calendar being protected.
type User struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	Name            string    `json:"name,omitempty"`
	Email           string    `gorm:"uniqueIndex" json:"email,omitempty"`
	UID             string    `json:"uid,omitempty"`
	BusinessName    string    `json:"business_name,omitempty"`
	Slug            string    `gorm:"uniqueIndex" json:"slug,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Timezone        string    `gorm:"default:'UTC'" json:"timezone,omitempty"`
	EmailReminders  bool      `gorm:"default:true" json:"email_reminders,omitempty"`
	SmsReminders    bool      `json:"sms_reminders,omitempty"`
	EmailVerified   bool      `json:"email_verified,omitempty"`
	VerifiedAt      time.Time `json:"verified_at,omitempty"`
	StripeAccountId *string   `json:"-"`

	Services []Service `gorm:"foreignKey:user_id" json:"services,omitempty"`
	Bookings []Booking `gorm:"foreignKey:user_id" json:"bookings,omitempty"`
	Clients  []Client  `gorm:"foreignKey:user_id" json:"clients,omitempty"`

	types.Timestamps
}
