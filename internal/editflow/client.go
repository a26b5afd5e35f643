package editflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

// Client talks to the reservation API. It serves as both the RecordStore and
// the Updater of a Controller.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Retries is how many times a PUT is resent after a transport error.
	// Every attempt carries the same Idempotency-Key.
	Retries int
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Retries: 1,
	}
}

func (c *Client) Fetch(ctx context.Context, id int64) (reservations.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(id), nil)
	if err != nil {
		return reservations.Record{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return reservations.Record{}, fmt.Errorf("fetch reservation %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return reservations.Record{}, fmt.Errorf("fetch reservation %d: unexpected status %d", id, resp.StatusCode)
	}
	var rec reservations.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return reservations.Record{}, fmt.Errorf("fetch reservation %d: decode: %w", id, err)
	}
	return rec, nil
}

func (c *Client) Update(ctx context.Context, u reservations.Update) (reservations.Result, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return reservations.Result{}, err
	}
	key := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		res, err := c.put(ctx, u.ID, key, body)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isTransport(err) {
			break
		}
		log.Printf("update reservation %d: attempt %d failed: %v", u.ID, attempt+1, err)
	}
	return reservations.Result{}, lastErr
}

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransport(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

func (c *Client) put(ctx context.Context, id int64, key string, body []byte) (reservations.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(id), bytes.NewReader(body))
	if err != nil {
		return reservations.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return reservations.Result{}, &transportError{fmt.Errorf("update reservation %d: %w", id, err)}
	}
	defer resp.Body.Close()

	var res reservations.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return reservations.Result{}, fmt.Errorf("update reservation %d: status %d: decode: %w", id, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Success = false
	}
	return res, nil
}

func (c *Client) url(id int64) string {
	return fmt.Sprintf("%s/reservations/%d", c.BaseURL, id)
}
