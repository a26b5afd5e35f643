package projector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-realtime-reservations.git/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

type Loader interface {
	Get(ctx context.Context, id int64) (reservations.Reservation, error)
}

type Cache interface {
	SetRecord(ctx context.Context, id int64, b []byte) error
	Claim(ctx context.Context, service, eventID string) (bool, error)
	Release(ctx context.Context, service, eventID string) error
}

// Service keeps the GET cache warm after every persisted update.
type Service struct {
	Repo        Loader
	Cache       Cache
	ServiceName string
}

// HandleReservationUpdated is installed as the consumer handler.
func (s *Service) HandleReservationUpdated(ctx context.Context, m kafkago.Message) error {
	var env reservations.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("projector: drop undecodable message at offset %d: %v", m.Offset, err)
		return nil
	}
	if env.EventType != reservations.EventReservationUpdated {
		return nil
	}

	claimed, err := s.Cache.Claim(ctx, s.ServiceName, env.EventID)
	if err != nil {
		return fmt.Errorf("claim %s: %w", env.EventID, err)
	}
	if !claimed {
		return nil
	}

	if err := s.project(ctx, env); err != nil {
		if rerr := s.Cache.Release(ctx, s.ServiceName, env.EventID); rerr != nil {
			log.Printf("projector: release %s: %v", env.EventID, rerr)
		}
		return err
	}
	return nil
}

func (s *Service) project(ctx context.Context, env reservations.Envelope) error {
	p, err := kafkax.UnwrapPayload[reservations.ReservationUpdatedPayload](env.Payload)
	if err != nil {
		return err
	}

	// the row is the source of truth; a later update may already have landed
	res, err := s.Repo.Get(ctx, p.ReservationID)
	if errors.Is(err, reservations.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	b, err := json.Marshal(res.Record())
	if err != nil {
		return err
	}
	return s.Cache.SetRecord(ctx, res.ID, b)
}
