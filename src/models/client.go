package models

import "comebookus/src/types"

// Client belongs to a single provider. Guest bookings upsert one by email.
type Client struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"index:idx_clients_user_email,unique" json:"user_id,omitempty"`
	Email  string `gorm:"index:idx_clients_user_email,unique" json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Notes  string `json:"notes,omitempty"`

	User     User      `gorm:"foreignKey:user_id" json:"-"`
	Bookings []Booking `gorm:"foreignKey:client_id" json:"bookings,omitempty"`

	types.Timestamps
}
