package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("reservation not found")
	ErrValueTooLong = errors.New("value too long for column")
)

const selectColumns = `id, customer_name, customer_phone, reservation_date,
	to_char(reservation_time, 'HH24:MI'), party_size, special_requests, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, id int64) (Reservation, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+selectColumns+` FROM reservation WHERE id=$1`, id)
	res, err := scanReservation(row)
	if err != nil {
		return Reservation{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return res, nil
}

// Update overwrites the editable columns of one row and refreshes updated_at.
// id, created_at are never touched.
func (r *Repo) Update(ctx context.Context, u Update) (Reservation, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE reservation
		SET customer_name = $2,
		    customer_phone = $3,
		    reservation_date = $4::text::date,
		    reservation_time = $5::text::time,
		    party_size = $6,
		    special_requests = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+selectColumns,
		u.ID, u.CustomerName, u.Phone, u.ReservationDate, u.ReservationTime, u.PartySize, u.SpecialRequests,
	)
	res, err := scanReservation(row)
	if err != nil {
		return Reservation{}, fmt.Errorf("update reservation %d: %w", u.ID, err)
	}
	return res, nil
}

func scanReservation(row pgx.Row) (Reservation, error) {
	var res Reservation
	err := row.Scan(
		&res.ID,
		&res.CustomerName,
		&res.CustomerPhone,
		&res.ReservationDate,
		&res.ReservationTime,
		&res.PartySize,
		&res.SpecialRequests,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	return res, mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22001" { // string_data_right_truncation
		return fmt.Errorf("%w: %s", ErrValueTooLong, pgErr.Message)
	}
	return err
}
