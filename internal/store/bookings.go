package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrSlotTaken indicates another booking already occupies part of the
// requested [start,end) interval for the same venue and date.
var ErrSlotTaken = errors.New("slot already booked")

// Booking is a reserved time slot at a venue. Date is YYYY-MM-DD; times are
// wall-clock HH:MM.
type Booking struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	VenueID         int64   `json:"venueId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Price           float64 `json:"price"`
}

// BookingSlot is the occupied-interval projection served to availability
// queries.
type BookingSlot struct {
	ID        int64  `json:"id"`
	VenueID   int64  `json:"venueId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// CreateBooking inserts a booking as a single atomic statement and returns
// the generated ID. It performs no conflict detection: two identical slots
// both succeed. Use CreateBookingExclusive when double booking must be
// rejected.
func (s *Store) CreateBooking(ctx context.Context, b *Booking) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO bookings (user_id, venue_id, booking_date, start_time, end_time, duration_minutes, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, b.UserID, b.VenueID, b.Date, b.StartTime, b.EndTime, b.DurationMinutes, b.Price).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	b.ID = id
	return id, nil
}

// CreateBookingExclusive inserts a booking only if no existing booking for
// the same venue and date overlaps the requested [start,end) interval. The
// check and insert share a transaction holding an advisory lock on the venue
// so concurrent calls for the same venue serialize instead of racing the
// overlap check.
func (s *Store) CreateBookingExclusive(ctx context.Context, b *Booking) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, b.VenueID); err != nil {
		return 0, fmt.Errorf("lock venue: %w", err)
	}

	var taken bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE venue_id = $1
			  AND booking_date = $2
			  AND start_time < $4::time
			  AND end_time > $3::time
		)
	`, b.VenueID, b.Date, b.StartTime, b.EndTime).Scan(&taken)
	if err != nil {
		return 0, fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return 0, ErrSlotTaken
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (user_id, venue_id, booking_date, start_time, end_time, duration_minutes, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, b.UserID, b.VenueID, b.Date, b.StartTime, b.EndTime, b.DurationMinutes, b.Price).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	b.ID = id
	return id, nil
}

// BookingsForDate lists the occupied slots of a venue on a date, ordered by
// start time ascending.
func (s *Store) BookingsForDate(ctx context.Context, venueID int64, date string) ([]BookingSlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, venue_id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM bookings
		WHERE venue_id = $1 AND booking_date = $2
		ORDER BY start_time ASC
	`, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	slots := make([]BookingSlot, 0)
	for rows.Next() {
		var s BookingSlot
		if err := rows.Scan(&s.ID, &s.VenueID, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return slots, nil
}
