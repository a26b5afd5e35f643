package reservations

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMapsStoreShape(t *testing.T) {
	note := "birthday"
	res := Reservation{
		ID:              1,
		CustomerName:    "Jane Doe",
		CustomerPhone:   "5551234567",
		ReservationDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local),
		ReservationTime: "18:30",
		PartySize:       4,
		SpecialRequests: &note,
	}

	b, err := json.Marshal(res.Record())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "5551234567", got["phone"])
	assert.Equal(t, "2024-05-01T00:00:00Z", got["reservationDate"])
	assert.Equal(t, float64(4), got["partySize"])
	assert.Equal(t, "birthday", got["specialRequests"])
	assert.NotContains(t, got, "customerPhone")
}

func TestRecordOmitsNullRequests(t *testing.T) {
	b, err := json.Marshal(Reservation{ID: 2}.Record())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "specialRequests")
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, []byte("42"), PartitionKey(42))
}
