package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "canceled"
	BOOKING_COMPLETED BookingStatus = "completed"
	BOOKING_NO_SHOW   BookingStatus = "no_show"
)

// IsTerminal reports whether the status can no longer change and the
// booking no longer holds the provider's calendar slot.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BOOKING_CANCELED, BOOKING_COMPLETED, BOOKING_NO_SHOW:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_FAILED   PaymentStatus = "failed"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
)

type CreateBookingRequestBody struct {
	ServiceID       uint   `json:"service_id" binding:"required"`
	StartTime       string `json:"start_time" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	ClientEmail     string `json:"client_email" binding:"required,email"`
	ClientName      string `json:"client_name,omitempty"`
	ClientPhone     string `json:"client_phone,omitempty"`
	Notes           string `json:"notes,omitempty"`
	RequiresPayment *bool  `json:"requires_payment,omitempty"`
}

type UpdateBookingRequestBody struct {
	StartTime string  `json:"start_time" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Notes     *string `json:"notes,omitempty"`
}

type CreateServiceRequestBody struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	Duration    uint   `json:"duration" binding:"required,min=15,max=480"`
	Price       int64  `json:"price" binding:"min=0"`
	BufferTime  uint   `json:"buffer_time,omitempty" binding:"max=120"`
	Color       string `json:"color,omitempty"`
}

type UpdateServiceRequestBody struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Duration    *uint   `json:"duration,omitempty" binding:"omitempty,min=15,max=480"`
	Price       *int64  `json:"price,omitempty" binding:"omitempty,min=0"`
	BufferTime  *uint   `json:"buffer_time,omitempty" binding:"omitempty,max=120"`
	Color       *string `json:"color,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type UpdateProfileRequestBody struct {
	Name           *string `json:"name,omitempty"`
	BusinessName   *string `json:"business_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Timezone       *string `json:"timezone,omitempty"`
	EmailReminders *bool   `json:"email_reminders,omitempty"`
	SmsReminders   *bool   `json:"sms_reminders,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type AvailabilityQueryParams struct {
	Date      string `form:"date" binding:"required"`
	ServiceID uint   `form:"service_id" binding:"required"`
}

type BookingQueryFilters struct {
	Status string `form:"status,omitempty"`
	From   string `form:"from,omitempty"`
	To     string `form:"to,omitempty"`
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type APIResponseBooking struct {
	ID            uint          `json:"id"`
	ServiceID     uint          `json:"service_id,omitempty"`
	Status        BookingStatus `json:"status,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	StartTime     time.Time     `json:"start_time,omitempty"`
	EndTime       time.Time     `json:"end_time,omitempty"`
	Amount        int64         `json:"amount,omitempty"`
	ClientEmail   string        `json:"client_email,omitempty"`
	ClientSecret  *string       `json:"client_secret,omitempty"`
}

type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type DashboardStats struct {
	TotalBookings    int64 `json:"total_bookings"`
	UpcomingBookings int64 `json:"upcoming_bookings"`
	TotalClients     int64 `json:"total_clients"`
	Revenue          int64 `json:"revenue"`
}
