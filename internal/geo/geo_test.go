package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{12.9716, 77.5946},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
	}

	for _, p := range points {
		if d := Distance(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Distance(%v,%v self) = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{12.9716, 77.5946, 13.0827, 80.2707}, // Bangalore <-> Chennai
		{51.5074, -0.1278, 48.8566, 2.3522},  // London <-> Paris
		{0, 0, 0, 180},
	}

	for _, p := range pairs {
		ab := Distance(p[0], p[1], p[2], p[3])
		ba := Distance(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Bangalore center to a point ~0.2 km away, per the listing scenario.
	d := Distance(12.97, 77.59, 12.9716, 77.5946)
	if d < 0.1 || d > 0.6 {
		t.Errorf("Distance = %v km, want roughly 0.2 km", d)
	}

	// London to Paris is about 344 km.
	d = Distance(51.5074, -0.1278, 48.8566, 2.3522)
	if d < 330 || d > 360 {
		t.Errorf("London-Paris distance = %v km, want ~344 km", d)
	}
}

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"bounds", 90, 180, false},
		{"negative bounds", -90, -180, false},
		{"lat too high", 90.01, 0, true},
		{"lat too low", -91, 0, true},
		{"lon too high", 0, 181, true},
		{"lon too low", 0, -180.5, true},
		{"NaN", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.lat, tt.lon)
			if tt.wantErr && !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("ValidateCoordinate(%v,%v) = %v, want ErrInvalidCoordinate", tt.lat, tt.lon, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateCoordinate(%v,%v) unexpected error %v", tt.lat, tt.lon, err)
			}
		})
	}
}

func TestRankOrderAndRadius(t *testing.T) {
	candidates := []Candidate{
		{VenueID: 1, Name: "far", Latitude: 13.5, Longitude: 78.5},
		{VenueID: 2, Name: "near", Latitude: 12.9716, Longitude: 77.5946},
		{VenueID: 3, Name: "mid", Latitude: 13.0, Longitude: 77.7},
		{VenueID: 4, Name: "out of range", Latitude: 19.0760, Longitude: 72.8777},
	}

	ranked, err := Rank(12.97, 77.59, 50, candidates)
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}

	for _, r := range ranked {
		if r.DistanceKm > 50 {
			t.Errorf("venue %d at %v km exceeds radius", r.VenueID, r.DistanceKm)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].DistanceKm < ranked[i-1].DistanceKm {
			t.Errorf("results not ordered by distance: %v after %v", ranked[i].DistanceKm, ranked[i-1].DistanceKm)
		}
	}

	for _, r := range ranked {
		if r.VenueID == 4 {
			t.Error("venue beyond the radius was returned")
		}
	}
	if len(ranked) == 0 || ranked[0].VenueID != 2 {
		t.Errorf("expected venue 2 closest, got %+v", ranked)
	}
}

func TestRankTieBreakByVenueID(t *testing.T) {
	// Same coordinates, so identical distances; order must fall back to ID.
	candidates := []Candidate{
		{VenueID: 9, Latitude: 12.98, Longitude: 77.6},
		{VenueID: 3, Latitude: 12.98, Longitude: 77.6},
		{VenueID: 7, Latitude: 12.98, Longitude: 77.6},
	}

	ranked, err := Rank(12.97, 77.59, 50, candidates)
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}

	var ids []int64
	for _, r := range ranked {
		ids = append(ids, r.VenueID)
	}
	want := []int64{3, 7, 9}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("tie-break order = %v, want %v", ids, want)
		}
	}
}

func TestRankInvalidOrigin(t *testing.T) {
	if _, err := Rank(100, 0, 50, nil); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}
