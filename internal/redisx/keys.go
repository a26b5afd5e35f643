package redisx

import "time"

const (
	// Cached GET payload: reservation:{id} -> Record JSON
	KeyReservation = "reservation:%d"

	// Idempotent update replay: idem:reservation:update:{id}:{idempotency_key} -> response JSON
	KeyIdemUpdate = "idem:reservation:update:%d:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLRecordCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
