package httpx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/editflow"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

type instant struct{}

type instantTimer struct{}

func (instantTimer) Stop() bool { return false }

func (instant) AfterFunc(_ time.Duration, f func()) editflow.Timer {
	go f()
	return instantTimer{}
}

func TestEditSessionRoundTrip(t *testing.T) {
	f := newFixture(t)
	client := editflow.NewClient(f.srv.URL, time.Second)

	c := editflow.New(1, client, client, editflow.WithScheduler(instant{}))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	before := c.Form()
	assert.Equal(t, "2024-05-01", before.ReservationDate)

	require.NoError(t, c.Submit(ctx, before))
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("session never navigated")
	}
	assert.Equal(t, editflow.StateNavigated, c.State())
	assert.Equal(t, "/reservation/1", c.Redirect())

	require.Len(t, f.store.applied(), 1)
	assert.Equal(t, reservations.Update{
		ID:              1,
		CustomerName:    "Jane Doe",
		Phone:           "5551234567",
		ReservationDate: "2024-05-01",
		ReservationTime: "18:30",
		PartySize:       4,
	}, f.store.applied()[0])

	// a fresh session sees the same values
	again := editflow.New(1, client, client)
	defer again.Close()
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, before, again.Form())
	assert.Len(t, f.pub.sent(), 1)
}

func TestEditSessionLoadErrorOnMissing(t *testing.T) {
	f := newFixture(t)
	client := editflow.NewClient(f.srv.URL, time.Second)

	c := editflow.New(42, client, client)
	defer c.Close()

	assert.ErrorIs(t, c.Load(context.Background()), editflow.ErrLoadFailed)
	assert.Equal(t, editflow.StateLoadError, c.State())
	assert.ErrorIs(t, c.Submit(context.Background(), c.Form()), editflow.ErrNotReady)
	assert.Empty(t, f.store.applied())
}
