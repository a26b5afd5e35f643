package reservations

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() Input {
	return Input{
		ID:              "1",
		CustomerName:    "Jane Doe",
		Phone:           "5551234567",
		ReservationDate: "2024-05-01",
		ReservationTime: "18:30",
		PartySize:       "4",
	}
}

func validationFields(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %v", err)
	return ve
}

func TestValidateAccepts(t *testing.T) {
	u, err := Validate(validInput())
	require.NoError(t, err)

	want := Update{
		ID:              1,
		CustomerName:    "Jane Doe",
		Phone:           "5551234567",
		ReservationDate: "2024-05-01",
		ReservationTime: "18:30",
		PartySize:       4,
	}
	if diff := cmp.Diff(want, u); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCustomerName(t *testing.T) {
	for _, name := range []string{"", "A", "é"} {
		in := validInput()
		in.CustomerName = name
		_, err := Validate(in)
		fe, ok := validationFields(t, err).Field(FieldCustomerName)
		require.True(t, ok, "name %q", name)
		assert.Equal(t, CodeTooShort, fe.Code)
		assert.Equal(t, "Customer name must be at least 2 characters.", fe.Message)
	}
	for _, name := range []string{"Al", "Zoë", strings.Repeat("x", 200)} {
		in := validInput()
		in.CustomerName = name
		_, err := Validate(in)
		assert.NoError(t, err, "name %q", name)
	}
}

func TestValidatePhone(t *testing.T) {
	in := validInput()
	in.Phone = "555123456"
	_, err := Validate(in)
	fe, ok := validationFields(t, err).Field(FieldPhone)
	require.True(t, ok)
	assert.Equal(t, CodeTooShort, fe.Code)

	in.Phone = "(555) 123-4567 ext 9"
	_, err = Validate(in)
	assert.NoError(t, err)
}

func TestValidateReservationDate(t *testing.T) {
	good := []string{"2024-05-01", "2024-05-01T00:00:00Z", "2024-05-01T18:30:00.000Z", "2024-05-01T18:30", "1999-01-01"}
	for _, d := range good {
		in := validInput()
		in.ReservationDate = d
		u, err := Validate(in)
		require.NoError(t, err, "date %q", d)
		assert.Len(t, u.ReservationDate, len(DateLayout))
	}
	// only ISO-8601 forms; free-form dates a browser parser would take are refused
	bad := []string{"", "tomorrow", "2024-13-01", "2024-02-30", "01/05/2024x",
		"2024-05-01 18:30", "May 1, 2024", "05/01/2024", "2024/05/01"}
	for _, d := range bad {
		in := validInput()
		in.ReservationDate = d
		_, err := Validate(in)
		fe, ok := validationFields(t, err).Field(FieldReservationDate)
		require.True(t, ok, "date %q", d)
		assert.Equal(t, CodeInvalidDate, fe.Code)
	}
}

func TestValidateReservationTime(t *testing.T) {
	good := map[string]string{"00:00": "00:00", "23:59": "23:59", "9:05": "09:05", "18:30": "18:30"}
	for in, want := range good {
		// independent of other fields' validity
		c := validInput()
		c.ReservationTime = in
		c.CustomerName = "A"
		_, err := Validate(c)
		ve := validationFields(t, err)
		_, ok := ve.Field(FieldReservationTime)
		assert.False(t, ok, "time %q", in)

		c = validInput()
		c.ReservationTime = in
		u, err := Validate(c)
		require.NoError(t, err)
		assert.Equal(t, want, u.ReservationTime)
	}
	for _, tm := range []string{"24:00", "12:60", "1230", "12:5", "noon", "", " 12:30", "12:30:00"} {
		c := validInput()
		c.ReservationTime = tm
		_, err := Validate(c)
		fe, ok := validationFields(t, err).Field(FieldReservationTime)
		require.True(t, ok, "time %q", tm)
		assert.Equal(t, CodeInvalidFormat, fe.Code)
	}
}

func TestValidatePartySizeCoercion(t *testing.T) {
	tests := []struct {
		raw  Numeric
		want int
		code Code
	}{
		{raw: "3", want: 3},
		{raw: " 12 ", want: 12},
		{raw: "1", want: 1},
		{raw: "2.0", want: 2},
		{raw: "0", code: CodeTooSmall},
		{raw: "-1", code: CodeTooSmall},
		{raw: "", code: CodeTooSmall},
		{raw: "0.5", code: CodeTooSmall},
		{raw: "1.5", code: CodeNotInteger},
		{raw: "four", code: CodeInvalidNumber},
		{raw: "Inf", code: CodeInvalidNumber},
		{raw: "1e12", code: CodeTooLarge},
	}
	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			in := validInput()
			in.PartySize = tt.raw
			u, err := Validate(in)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, u.PartySize)
				return
			}
			fe, ok := validationFields(t, err).Field(FieldPartySize)
			require.True(t, ok)
			assert.Equal(t, tt.code, fe.Code)
		})
	}
}

func TestValidateCollectsAllFields(t *testing.T) {
	in := Input{ID: "7", CustomerName: "A", Phone: "1", ReservationDate: "x", ReservationTime: "y", PartySize: "0"}
	_, err := Validate(in)
	ve := validationFields(t, err)

	got := map[string]Code{}
	for _, f := range ve.Fields {
		got[f.Field] = f.Code
	}
	want := map[string]Code{
		FieldCustomerName:    CodeTooShort,
		FieldPhone:           CodeTooShort,
		FieldReservationDate: CodeInvalidDate,
		FieldReservationTime: CodeInvalidFormat,
		FieldPartySize:       CodeTooSmall,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, ve.Error(), "customerName")
}

func TestValidateMissingID(t *testing.T) {
	for _, id := range []Numeric{"", "abc", "0", "-3", "1.5"} {
		in := validInput()
		in.ID = id
		_, err := Validate(in)
		assert.ErrorIs(t, err, ErrMissingID, "id %q", id)
	}
}

func TestValidateSpecialRequests(t *testing.T) {
	in := validInput()
	empty := ""
	in.SpecialRequests = &empty
	u, err := Validate(in)
	require.NoError(t, err)
	assert.Nil(t, u.SpecialRequests)

	note := "window seat"
	in.SpecialRequests = &note
	u, err = Validate(in)
	require.NoError(t, err)
	require.NotNil(t, u.SpecialRequests)
	assert.Equal(t, "window seat", *u.SpecialRequests)
}

func TestInputDecodesNumbersAndStrings(t *testing.T) {
	var in Input
	err := json.Unmarshal([]byte(`{"id":1,"customerName":"Jane Doe","phone":"5551234567",
		"reservationDate":"2024-05-01","reservationTime":"18:30","partySize":"3"}`), &in)
	require.NoError(t, err)
	assert.Equal(t, Numeric("1"), in.ID)
	assert.Equal(t, Numeric("3"), in.PartySize)

	err = json.Unmarshal([]byte(`{"id":"1","partySize":null}`), &in)
	require.NoError(t, err)
	assert.Equal(t, Numeric(""), in.PartySize)

	err = json.Unmarshal([]byte(`{"partySize":true}`), &in)
	assert.Error(t, err)
}

func TestNumericMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Numeric `json:"a"`
		B Numeric `json:"b"`
	}{A: "4", B: "four"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":4,"b":"four"}`, string(b))
}
