package models

import "comebookus/src/types"

// Service is a bookable offering. Duration determines a booking's end;
// BufferTime only widens the interval held against the calendar.
type Service struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	UserID      uint   `json:"user_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Duration    uint   `json:"duration"`
	Price       int64  `json:"price"`
	BufferTime  uint   `json:"buffer_time"`
	Color       string `gorm:"default:'#7C3AED'" json:"color,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	User     User      `gorm:"foreignKey:user_id" json:"-"`
	Bookings []Booking `gorm:"foreignKey:service_id" json:"bookings,omitempty"`

	types.Timestamps
}
