package reservations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used by edit forms and update payloads.
const DateLayout = "2006-01-02"

// Reservation is one row of the reservation table.
type Reservation struct {
	ID              int64
	CustomerName    string
	CustomerPhone   string
	ReservationDate time.Time
	ReservationTime string // HH:MM
	PartySize       int
	SpecialRequests *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Record is the wire shape served by GET /reservations/{id}.
type Record struct {
	ID              int64     `json:"id"`
	CustomerName    string    `json:"customerName"`
	Phone           string    `json:"phone"`
	ReservationDate string    `json:"reservationDate"` // ISO-8601 date-time
	ReservationTime string    `json:"reservationTime"`
	PartySize       int       `json:"partySize"`
	SpecialRequests *string   `json:"specialRequests,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r Reservation) Record() Record {
	d := r.ReservationDate
	return Record{
		ID:              r.ID,
		CustomerName:    r.CustomerName,
		Phone:           r.CustomerPhone,
		ReservationDate: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		ReservationTime: r.ReservationTime,
		PartySize:       r.PartySize,
		SpecialRequests: r.SpecialRequests,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// Numeric holds the raw text of a field that may arrive as a JSON number or
// as a numeric string. Coercion happens during validation.
type Numeric string

func NumericInt(n int64) Numeric { return Numeric(strconv.FormatInt(n, 10)) }

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*n = Numeric(b)
	default:
		return fmt.Errorf("numeric field: unexpected %s", b)
	}
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(n))
	if _, err := strconv.ParseFloat(s, 64); err == nil && json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	return json.Marshal(string(n))
}

// Input is an edit candidate as typed by a user or received from a client.
type Input struct {
	ID              Numeric `json:"id"`
	CustomerName    string  `json:"customerName"`
	Phone           string  `json:"phone"`
	ReservationDate string  `json:"reservationDate"`
	ReservationTime string  `json:"reservationTime"`
	PartySize       Numeric `json:"partySize"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

// Update is a validated, coerced edit ready to be persisted.
type Update struct {
	ID              int64   `json:"id"`
	CustomerName    string  `json:"customerName"`
	Phone           string  `json:"phone"`
	ReservationDate string  `json:"reservationDate"`
	ReservationTime string  `json:"reservationTime"`
	PartySize       int     `json:"partySize"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

// Result is the discriminated outcome returned by the update endpoint.
type Result struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}
