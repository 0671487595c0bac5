package registration

import (
	"errors"
	"strings"
	"time"
)

// Registration is one guest's stay record. ID and CreatedAt are assigned by
// the store; dates are calendar dates rendered as YYYY-MM-DD.
//
// Responses use the column names (snake_case) while request bodies are
// camelCase; the browser client depends on both.
type Registration struct {
	ID           int64     `json:"id"`
	CustomerID   string    `json:"customer_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	CheckInDate  string    `json:"check_in_date"`
	CheckOutDate string    `json:"check_out_date"`
	RoomType     string    `json:"room_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Room categories the UI offers. The store accepts any non-empty value.
const (
	RoomStandard = "Standard"
	RoomDeluxe   = "Deluxe"
	RoomSuite    = "Suite"
)

var (
	ErrNotFound            = errors.New("registration not found")
	ErrDuplicateCustomerID = errors.New("customer id already registered")
)

type CreateRegistrationRequest struct {
	CustomerID   string `json:"customerId" binding:"required"`
	FullName     string `json:"fullName" binding:"required"`
	Email        string `json:"email" binding:"required"`
	CheckInDate  string `json:"checkInDate" binding:"required,calendardate"`
	CheckOutDate string `json:"checkOutDate" binding:"required,calendardate"`
	RoomType     string `json:"roomType" binding:"required"`
}

// full replacement, there is no partial update
type UpdateRegistrationRequest struct {
	ID           int64  `json:"id" binding:"required,min=1"`
	CustomerID   string `json:"customerId" binding:"required"`
	FullName     string `json:"fullName" binding:"required"`
	Email        string `json:"email" binding:"required"`
	CheckInDate  string `json:"checkInDate" binding:"required,calendardate"`
	CheckOutDate string `json:"checkOutDate" binding:"required,calendardate"`
	RoomType     string `json:"roomType" binding:"required"`
}

type DeleteRegistrationRequest struct {
	ID int64 `json:"id" binding:"required,min=1"`
}

type ListFilter struct {
	// CustomerID is a case-insensitive substring match; nil lists everything.
	CustomerID *string
}

// Normalize truncates both dates to their calendar day. It expects a request
// that already passed binding.
func (req CreateRegistrationRequest) Normalize() CreateRegistrationRequest {
	req.CheckInDate = MustNormalizeDate(req.CheckInDate)
	req.CheckOutDate = MustNormalizeDate(req.CheckOutDate)
	return req
}

func (req UpdateRegistrationRequest) Normalize() UpdateRegistrationRequest {
	req.CheckInDate = MustNormalizeDate(req.CheckInDate)
	req.CheckOutDate = MustNormalizeDate(req.CheckOutDate)
	return req
}

// Matches reports whether r passes the filter.
func (f ListFilter) Matches(r Registration) bool {
	if f.CustomerID == nil || *f.CustomerID == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.CustomerID), strings.ToLower(*f.CustomerID))
}
