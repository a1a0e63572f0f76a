package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrVenueNotFound indicates the referenced venue does not exist.
var ErrVenueNotFound = errors.New("venue not found")

// Pricing holds the four tariff tiers a venue charges per hour.
type Pricing struct {
	MorningWeekday float64 `json:"morningWeekday"`
	MorningWeekend float64 `json:"morningWeekend"`
	EveningWeekday float64 `json:"eveningWeekday"`
	EveningWeekend float64 `json:"eveningWeekend"`
}

// Photo is one hosted image attached to a venue. Photos keep their creation
// order; the lowest ID is the venue's primary photo.
type Photo struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Timing is a venue's single operating-hours window, wall-clock HH:MM.
type Timing struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Venue is a bookable facility with location, pricing, photos and exactly one
// timing window.
type Venue struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Name        string    `json:"name"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Description string    `json:"description"`
	Pricing     Pricing   `json:"pricing"`
	Photos      []Photo   `json:"photos"`
	Timing      Timing    `json:"timing"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VenueSummary is the slim projection used for proximity ranking. PhotoURL is
// the venue's primary photo (lowest photo ID) or empty when it has none.
type VenueSummary struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	PhotoURL  string
}

// CreateVenue persists a venue, its photo rows and its single timing window in
// one transaction. The generated ID is written back to v and returned. Any
// failure rolls back every row; nothing is visible to other readers until
// commit.
func (s *Store) CreateVenue(ctx context.Context, v *Venue) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var venueID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO venues (owner_id, name, latitude, longitude, description,
			morning_weekday_price, morning_weekend_price,
			evening_weekday_price, evening_weekend_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, v.OwnerID, v.Name, v.Latitude, v.Longitude, v.Description,
		v.Pricing.MorningWeekday, v.Pricing.MorningWeekend,
		v.Pricing.EveningWeekday, v.Pricing.EveningWeekend,
	).Scan(&venueID)
	if err != nil {
		return 0, fmt.Errorf("insert venue: %w", err)
	}

	for i := range v.Photos {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO venue_photos (venue_id, photo_url)
			VALUES ($1, $2)
			RETURNING id
		`, venueID, v.Photos[i].URL).Scan(&v.Photos[i].ID); err != nil {
			return 0, fmt.Errorf("insert photo: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO venue_timings (venue_id, open_time, close_time)
		VALUES ($1, $2, $3)
	`, venueID, v.Timing.Open, v.Timing.Close); err != nil {
		return 0, fmt.Errorf("insert timing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	v.ID = venueID
	return venueID, nil
}

// VenueByID loads a venue with its photos (creation order) and timing window.
func (s *Store) VenueByID(ctx context.Context, id int64) (*Venue, error) {
	var v Venue
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, latitude, longitude, description,
		       morning_weekday_price, morning_weekend_price,
		       evening_weekday_price, evening_weekend_price,
		       created_at
		FROM venues
		WHERE id = $1
	`, id).Scan(
		&v.ID, &v.OwnerID, &v.Name, &v.Latitude, &v.Longitude, &v.Description,
		&v.Pricing.MorningWeekday, &v.Pricing.MorningWeekend,
		&v.Pricing.EveningWeekday, &v.Pricing.EveningWeekend,
		&v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select venue: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, photo_url
		FROM venue_photos
		WHERE venue_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.URL); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		v.Photos = append(v.Photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT to_char(open_time, 'HH24:MI'), to_char(close_time, 'HH24:MI')
		FROM venue_timings
		WHERE venue_id = $1
	`, id).Scan(&v.Timing.Open, &v.Timing.Close)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select timing: %w", err)
	}

	return &v, nil
}

// ListVenueSummaries returns every venue's coordinates together with its
// primary photo, ordered by venue ID so downstream ranking is deterministic.
func (s *Store) ListVenueSummaries(ctx context.Context) ([]VenueSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.name, v.latitude, v.longitude, COALESCE(vp.photo_url, '')
		FROM venues v
		LEFT JOIN (
			SELECT DISTINCT ON (venue_id) venue_id, photo_url
			FROM venue_photos
			ORDER BY venue_id, id ASC
		) vp ON vp.venue_id = v.id
		ORDER BY v.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select venue summaries: %w", err)
	}
	defer rows.Close()

	var summaries []VenueSummary
	for rows.Next() {
		var vs VenueSummary
		if err := rows.Scan(&vs.ID, &vs.Name, &vs.Latitude, &vs.Longitude, &vs.PhotoURL); err != nil {
			return nil, fmt.Errorf("scan venue summary: %w", err)
		}
		summaries = append(summaries, vs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venue summaries: %w", err)
	}

	return summaries, nil
}
