// Package venues implements venue registration and discovery: transactional
// listing creation with compensating image cleanup, proximity search and the
// venue detail read path.
package venues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"turfbook/internal/geo"
	"turfbook/internal/store"
)

// ErrInvalidInput flags a registration or query rejected before any side
// effect.
var ErrInvalidInput = errors.New("invalid venue input")

// unknownLocation is served when reverse geocoding fails.
const unknownLocation = "Unknown Location"

// compensateTimeout bounds cleanup of uploaded images after a failure. The
// caller's context may already be cancelled by then, so cleanup runs on its
// own deadline.
const compensateTimeout = 30 * time.Second

// Store describes the persistence operations required by the venue service.
type Store interface {
	CreateVenue(ctx context.Context, v *store.Venue) (int64, error)
	VenueByID(ctx context.Context, id int64) (*store.Venue, error)
	ListVenueSummaries(ctx context.Context) ([]store.VenueSummary, error)
}

// ImageStore uploads image payloads to the external host and deletes them
// again when registration fails partway.
type ImageStore interface {
	Upload(ctx context.Context, payload []byte) (url, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}

// Geocoder resolves coordinates to a display name for the detail view.
type Geocoder interface {
	ReverseLookup(ctx context.Context, lat, lon float64) (string, error)
}

// RegisterInput is the validated payload for a new venue listing.
type RegisterInput struct {
	Name        string
	Latitude    float64
	Longitude   float64
	Description string
	Pricing     store.Pricing
	OpenTime    string
	CloseTime   string
}

// Nearby is one proximity search result.
type Nearby struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distanceKm"`
	PhotoURL   string  `json:"photoUrl,omitempty"`
}

// Detail is the venue detail view: the stored venue plus the resolved
// location name and display-formatted operating hours.
type Detail struct {
	store.Venue
	LocationName  string `json:"locationName"`
	AvailableFrom string `json:"availableFrom"`
	AvailableTo   string `json:"availableTo"`
}

// Service exposes venue workflows.
type Service interface {
	Register(ctx context.Context, ownerID int64, in RegisterInput, images [][]byte) (int64, error)
	NearbyVenues(ctx context.Context, lat, lon, radiusKm float64) ([]Nearby, error)
	Get(ctx context.Context, id int64) (*Detail, error)
}

type service struct {
	store           Store
	images          ImageStore
	geocoder        Geocoder
	defaultRadiusKm float64
}

// New wires a Service backed by the provided collaborators. radiusKm is the
// default search radius used when a query does not supply one.
func New(st Store, images ImageStore, geocoder Geocoder, radiusKm float64) Service {
	if radiusKm <= 0 {
		radiusKm = 50
	}
	return &service{store: st, images: images, geocoder: geocoder, defaultRadiusKm: radiusKm}
}

type uploadedImage struct {
	url      string
	publicID string
}

// Register validates the input, uploads images one by one, then persists the
// venue, photos and timing window in one transaction. Any failure after an
// upload triggers best-effort deletion of every image uploaded so far; a
// failed delete leaves an orphaned blob which is logged, never retried.
func (s *service) Register(ctx context.Context, ownerID int64, in RegisterInput, images [][]byte) (int64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}

	uploaded := make([]uploadedImage, 0, len(images))
	for i, payload := range images {
		url, publicID, err := s.images.Upload(ctx, payload)
		if err != nil {
			s.compensate(uploaded)
			return 0, fmt.Errorf("upload image %d of %d: %w", i+1, len(images), err)
		}
		uploaded = append(uploaded, uploadedImage{url: url, publicID: publicID})
	}

	v := &store.Venue{
		OwnerID:     ownerID,
		Name:        in.Name,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: in.Description,
		Pricing:     in.Pricing,
		Photos:      make([]store.Photo, 0, len(uploaded)),
		Timing:      store.Timing{Open: in.OpenTime, Close: in.CloseTime},
	}
	for _, img := range uploaded {
		v.Photos = append(v.Photos, store.Photo{URL: img.url})
	}

	id, err := s.store.CreateVenue(ctx, v)
	if err != nil {
		s.compensate(uploaded)
		return 0, fmt.Errorf("create venue: %w", err)
	}

	return id, nil
}

// compensate deletes already-uploaded images after a later step failed. Each
// delete is independent; failures are logged with the orphaned public ID so
// operators can reconcile the object store by hand.
func (s *service) compensate(uploaded []uploadedImage) {
	if len(uploaded) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
	defer cancel()

	for _, img := range uploaded {
		if err := s.images.Delete(ctx, img.publicID); err != nil {
			log.Error().
				Err(err).
				Str("public_id", img.publicID).
				Msg("compensating image delete failed, blob orphaned")
		}
	}
}

// NearbyVenues ranks all venues by great-circle distance from the origin,
// closest first, dropping anything beyond the radius.
func (s *service) NearbyVenues(ctx context.Context, lat, lon, radiusKm float64) ([]Nearby, error) {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	summaries, err := s.store.ListVenueSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}

	candidates := make([]geo.Candidate, 0, len(summaries))
	for _, vs := range summaries {
		candidates = append(candidates, geo.Candidate{
			VenueID:   vs.ID,
			Name:      vs.Name,
			Latitude:  vs.Latitude,
			Longitude: vs.Longitude,
			PhotoURL:  vs.PhotoURL,
		})
	}

	ranked, err := geo.Rank(lat, lon, radiusKm, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	results := make([]Nearby, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, Nearby{
			ID:         r.VenueID,
			Name:       r.Name,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			DistanceKm: r.DistanceKm,
			PhotoURL:   r.PhotoURL,
		})
	}
	return results, nil
}

// Get loads a venue detail view. Reverse geocoding failures degrade to a
// placeholder location name instead of failing the request.
func (s *service) Get(ctx context.Context, id int64) (*Detail, error) {
	v, err := s.store.VenueByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{
		Venue:         *v,
		LocationName:  unknownLocation,
		AvailableFrom: formatWallClock(v.Timing.Open),
		AvailableTo:   formatWallClock(v.Timing.Close),
	}

	if s.geocoder != nil {
		name, err := s.geocoder.ReverseLookup(ctx, v.Latitude, v.Longitude)
		if err != nil {
			log.Warn().Err(err).Int64("venue_id", id).Msg("reverse geocode failed")
		} else {
			d.LocationName = name
		}
	}

	return d, nil
}

func validateInput(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := geo.ValidateCoordinate(in.Latitude, in.Longitude); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for _, price := range []float64{
		in.Pricing.MorningWeekday, in.Pricing.MorningWeekend,
		in.Pricing.EveningWeekday, in.Pricing.EveningWeekend,
	} {
		if price < 0 {
			return fmt.Errorf("%w: prices must be non-negative", ErrInvalidInput)
		}
	}

	open, err := time.Parse("15:04", in.OpenTime)
	if err != nil {
		return fmt.Errorf("%w: open time must be HH:MM", ErrInvalidInput)
	}
	closing, err := time.Parse("15:04", in.CloseTime)
	if err != nil {
		return fmt.Errorf("%w: close time must be HH:MM", ErrInvalidInput)
	}
	if !open.Before(closing) {
		return fmt.Errorf("%w: open time must be before close time", ErrInvalidInput)
	}

	return nil
}

// formatWallClock renders an HH:MM time in 12-hour display form, matching
// the venue detail presentation.
func formatWallClock(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "Not Available"
	}
	return t.Format("3:04 PM")
}
