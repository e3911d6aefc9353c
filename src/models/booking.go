package models

import (
	"comebookus/src/types"
	"time"
)

type Booking struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	UserID          uint                `gorm:"index" json:"user_id,omitempty"`
	ServiceID       uint                `json:"service_id,omitempty"`
	ClientID        *uint               `json:"client_id,omitempty"`
	ClientEmail     string              `json:"client_email,omitempty"`
	ClientName      string              `json:"client_name,omitempty"`
	ClientPhone     string              `json:"client_phone,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	StartTime       time.Time           `gorm:"index" json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	BufferTime      uint                `json:"buffer_time,omitempty"`
	Status          types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	PaymentStatus   types.PaymentStatus `gorm:"default:'pending'" json:"payment_status,omitempty"`
	Amount          int64               `json:"amount"`
	Currency        string              `gorm:"default:'usd'" json:"currency,omitempty"`
	PaymentIntentId *string             `gorm:"index" json:"-"`
	ReminderSent    bool                `json:"reminder_sent,omitempty"`

	User    User     `gorm:"foreignKey:user_id" json:"-"`
	Service *Service `gorm:"foreignKey:service_id" json:"service,omitempty"`
	Client  *Client  `gorm:"foreignKey:client_id" json:"client,omitempty"`

	types.Timestamps
}

// EffectiveEnd is the exclusive end of the interval the booking holds on the
// provider's calendar. EndTime excludes the service buffer; the buffer is
// snapshotted on the booking so later service edits cannot shift history.
func (b *Booking) EffectiveEnd() time.Time {
	return b.EndTime.Add(time.Duration(b.BufferTime) * time.Minute)
}

// Holding reports whether the booking occupies its slot for conflict checks.
func (b *Booking) Holding() bool {
	return b.Status == types.BOOKING_PENDING || b.Status == types.BOOKING_CONFIRMED
}
