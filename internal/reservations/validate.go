package reservations

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Code string

const (
	CodeTooShort      Code = "TooShort"
	CodeInvalidDate   Code = "InvalidDate"
	CodeInvalidFormat Code = "InvalidFormat"
	CodeTooSmall      Code = "TooSmall"
	CodeTooLarge      Code = "TooLarge"
	CodeInvalidNumber Code = "InvalidNumber"
	CodeNotInteger    Code = "NotInteger"
)

const (
	FieldCustomerName    = "customerName"
	FieldPhone           = "phone"
	FieldReservationDate = "reservationDate"
	FieldReservationTime = "reservationTime"
	FieldPartySize       = "partySize"
)

var messages = map[string]string{
	FieldCustomerName:    "Customer name must be at least 2 characters.",
	FieldPhone:           "Phone number must be at least 10 digits.",
	FieldReservationDate: "Please enter a valid date.",
	FieldReservationTime: "Please enter a valid time in 24-hour format (HH:MM).",
	FieldPartySize:       "Party size must be at least 1 person.",
}

// ErrMissingID is structural: the id is a hidden, fixed field, so a bad one
// means the caller built the candidate wrong.
var ErrMissingID = errors.New("reservation id is missing or not numeric")

type FieldError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid reservation: " + strings.Join(names, ", ")
}

// Field returns the diagnostic for name, if any.
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}

var clockHHMM = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts a calendar date, an RFC 3339 date-time, or a zone-less
// date-time with minutes or seconds. Free-form dates are refused.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type candidate struct {
	CustomerName    string `json:"customerName" validate:"min=2"`
	Phone           string `json:"phone" validate:"min=10"`
	ReservationDate string `json:"reservationDate" validate:"calendar_date"`
	ReservationTime string `json:"reservationTime" validate:"clock_hhmm"`
}

var tagCodes = map[string]Code{
	"min":           CodeTooShort,
	"calendar_date": CodeInvalidDate,
	"clock_hhmm":    CodeInvalidFormat,
	"gte":           CodeTooSmall,
	"lte":           CodeTooLarge,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("clock_hhmm", func(fl validator.FieldLevel) bool {
		return clockHHMM.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks every field independently and returns the coerced update,
// or a *ValidationError carrying one diagnostic per failing field.
func Validate(in Input) (Update, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(in.ID)), 10, 64)
	if err != nil || id <= 0 {
		return Update{}, ErrMissingID
	}

	var fields []FieldError
	c := candidate{
		CustomerName:    in.CustomerName,
		Phone:           in.Phone,
		ReservationDate: in.ReservationDate,
		ReservationTime: in.ReservationTime,
	}
	if err := validate.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return Update{}, err
		}
		for _, fe := range ves {
			fields = append(fields, fieldError(fe.Field(), fe.Tag()))
		}
	}

	party, ferr := coercePartySize(in.PartySize)
	if ferr != nil {
		fields = append(fields, *ferr)
	}

	if len(fields) > 0 {
		return Update{}, &ValidationError{Fields: fields}
	}

	date, _ := ParseDate(in.ReservationDate)
	u := Update{
		ID:              id,
		CustomerName:    in.CustomerName,
		Phone:           in.Phone,
		ReservationDate: date.Format(DateLayout),
		ReservationTime: normalizeClock(in.ReservationTime),
		PartySize:       party,
	}
	if in.SpecialRequests != nil && *in.SpecialRequests != "" {
		s := *in.SpecialRequests
		u.SpecialRequests = &s
	}
	return u, nil
}

// coercePartySize mirrors numeric coercion of form input: blank means 0.
func coercePartySize(raw Numeric) (int, *FieldError) {
	s := strings.TrimSpace(string(raw))
	n := 0.0
	if s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			fe := fieldError(FieldPartySize, "")
			fe.Code = CodeInvalidNumber
			fe.Message = "Party size must be a number."
			return 0, &fe
		}
		n = f
	}
	if err := validate.Var(n, "gte=1"); err != nil {
		fe := fieldError(FieldPartySize, "gte")
		return 0, &fe
	}
	if err := validate.Var(n, "lte=2147483647"); err != nil {
		fe := fieldError(FieldPartySize, "lte")
		fe.Message = "Party size is too large."
		return 0, &fe
	}
	if n != math.Trunc(n) {
		fe := fieldError(FieldPartySize, "")
		fe.Code = CodeNotInteger
		fe.Message = "Party size must be a whole number."
		return 0, &fe
	}
	return int(n), nil
}

func fieldError(field, tag string) FieldError {
	return FieldError{Field: field, Code: tagCodes[tag], Message: messages[field]}
}

func normalizeClock(s string) string {
	h, m, _ := strings.Cut(s, ":")
	if len(h) == 1 {
		h = "0" + h
	}
	return h + ":" + m
}
