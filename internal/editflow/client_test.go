package editflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/reservations/1":
			_ = json.NewEncoder(w).Encode(janeDoe())
		default:
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	rec, err := c.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, janeDoe(), rec)

	_, err = c.Fetch(context.Background(), 2)
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestClientUpdate(t *testing.T) {
	var got reservations.Update
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/reservations/1", r.URL.Path)
		key = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Update(context.Background(), reservations.Update{ID: 1, CustomerName: "Jane Doe", PartySize: 4})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, got.PartySize)
	assert.NotEmpty(t, key)
}

func TestClientUpdateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":true,"error":"Time slot taken"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Update(context.Background(), reservations.Update{ID: 1})
	require.NoError(t, err)
	assert.False(t, res.Success, "non-2xx is never a success")
	assert.Equal(t, "Time slot taken", res.Error)
}

func TestClientUpdateUndecodable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Update(context.Background(), reservations.Update{ID: 1})
	assert.ErrorContains(t, err, "status 502")
}

func TestClientUpdateRetriesWithSameKey(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		first := len(keys) == 1
		mu.Unlock()
		if first {
			// drop the connection to force a transport error
			hj, ok := w.(http.Hijacker)
			if !assert.True(t, ok) {
				return
			}
			conn, _, err := hj.Hijack()
			if assert.NoError(t, err) {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Update(context.Background(), reservations.Update{ID: 1})
	require.NoError(t, err)
	assert.True(t, res.Success)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}
