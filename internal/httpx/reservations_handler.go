package httpx

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-realtime-reservations.git/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Store interface {
	Get(ctx context.Context, id int64) (reservations.Reservation, error)
	Update(ctx context.Context, u reservations.Update) (reservations.Reservation, error)
}

type Cache interface {
	Record(ctx context.Context, id int64) ([]byte, bool, error)
	SetRecord(ctx context.Context, id int64, b []byte) error
	DropRecord(ctx context.Context, id int64) error
	Reply(ctx context.Context, id int64, idemKey string) ([]byte, bool, error)
	SetReply(ctx context.Context, id int64, idemKey string, b []byte) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) error
}

type ReservationsHandler struct {
	Store    Store
	Cache    Cache
	Producer Publisher
	Service  string
}

// storedReply is what an idempotency key replays. BodyHash is the sha256 of
// the request that produced it; a reused key with another body is refused.
type storedReply struct {
	Status   int             `json:"status"`
	BodyHash string          `json:"bodyHash"`
	Body     json.RawMessage `json:"body"`
}

const msgIdemKeyReused = "Idempotency-Key was already used with a different request"

// maxBodyBytes caps PUT bodies; the largest valid edit is well under this.
const maxBodyBytes = 1 << 20

func (h *ReservationsHandler) Register(r chi.Router) {
	r.Get("/reservations/{id}", h.getReservation)
	r.Put("/reservations/{id}", h.updateReservation)
}

// pathID parses {id}. The column is a SERIAL, so anything past int4 is
// rejected here instead of failing inside Postgres.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0 && id <= math.MaxInt32
}

func (h *ReservationsHandler) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache
	if b, hit, err := h.Cache.Record(ctx, id); err != nil {
		log.Printf("cache read reservation %d: %v", id, err)
	} else if hit {
		writeRaw(w, http.StatusOK, b)
		return
	}

	// 2) fallback DB
	res, err := h.Store.Get(ctx, id)
	if errors.Is(err, reservations.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		log.Printf("get reservation %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load reservation"})
		return
	}

	b, _ := json.Marshal(res.Record())
	if err := h.Cache.SetRecord(ctx, id, b); err != nil {
		log.Printf("cache write reservation %d: %v", id, err)
	}
	writeRaw(w, http.StatusOK, b)
}

func (h *ReservationsHandler) updateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, reservations.Result{Error: "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, reservations.Result{Error: "invalid json"})
		return
	}
	sum := sha256.Sum256(raw)
	bodyHash := hex.EncodeToString(sum[:])

	idemKey := r.Header.Get(HeaderIdempotencyKey)
	if idemKey != "" {
		if b, hit, err := h.Cache.Reply(ctx, id, idemKey); err != nil {
			log.Printf("cache read reply %s: %v", idemKey, err)
		} else if hit {
			var rep storedReply
			if err := json.Unmarshal(b, &rep); err == nil {
				if rep.BodyHash != bodyHash {
					writeJSON(w, http.StatusUnprocessableEntity, reservations.Result{Error: msgIdemKeyReused})
					return
				}
				writeRaw(w, rep.Status, rep.Body)
				return
			}
		}
	}

	status, result := h.update(ctx, r, id, raw)
	body, _ := json.Marshal(result)
	if idemKey != "" && status < http.StatusInternalServerError {
		rep, _ := json.Marshal(storedReply{Status: status, BodyHash: bodyHash, Body: body})
		if err := h.Cache.SetReply(ctx, id, idemKey, rep); err != nil {
			log.Printf("cache write reply %s: %v", idemKey, err)
		}
	}
	writeRaw(w, status, body)
}

func (h *ReservationsHandler) update(ctx context.Context, r *http.Request, id int64, raw []byte) (int, reservations.Result) {
	var in reservations.Input
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&in); err != nil {
		return http.StatusBadRequest, reservations.Result{Error: "invalid json"}
	}
	if in.ID == "" {
		in.ID = reservations.NumericInt(id)
	}

	u, err := reservations.Validate(in)
	var ve *reservations.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, reservations.Result{Error: ve.Fields[0].Message, Fields: ve.Fields}
	case err != nil:
		return http.StatusBadRequest, reservations.Result{Error: err.Error()}
	case u.ID != id:
		return http.StatusBadRequest, reservations.Result{Error: "id does not match path"}
	}

	res, err := h.Store.Update(ctx, u)
	switch {
	case errors.Is(err, reservations.ErrNotFound):
		return http.StatusNotFound, reservations.Result{Error: "reservation not found"}
	case errors.Is(err, reservations.ErrValueTooLong):
		return http.StatusUnprocessableEntity, reservations.Result{Error: "Phone number must be at most 20 characters."}
	case err != nil:
		log.Printf("update reservation %d: %v", id, err)
		return http.StatusInternalServerError, reservations.Result{Error: "failed to update reservation"}
	}

	if err := h.Cache.DropRecord(ctx, id); err != nil {
		log.Printf("cache drop reservation %d: %v", id, err)
	}
	h.publishUpdated(res, middleware.GetReqID(r.Context()))
	return http.StatusOK, reservations.Result{Success: true}
}

func (h *ReservationsHandler) publishUpdated(res reservations.Reservation, trace string) {
	ev := reservations.Envelope{
		EventID:       uuid.NewString(),
		EventType:     reservations.EventReservationUpdated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: strconv.FormatInt(res.ID, 10),
		Payload: kafkax.MustMarshal(reservations.ReservationUpdatedPayload{
			ReservationID: res.ID,
			Reservation:   res.Record(),
		}),
	}
	err := h.Producer.Publish(reservations.PartitionKey(res.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(reservations.EventReservationUpdated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		log.Printf("publish %s for reservation %d: %v", reservations.EventReservationUpdated, res.ID, err)
	}
}
