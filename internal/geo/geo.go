package geo

import (
	"errors"
	"math"
	"sort"
)

// ErrInvalidCoordinate indicates a latitude or longitude outside its valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// earthRadiusKm is the spherical Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Candidate is a venue position considered for proximity ranking.
type Candidate struct {
	VenueID   int64
	Name      string
	Latitude  float64
	Longitude float64
	PhotoURL  string
}

// Ranked pairs a candidate with its distance from the ranking origin.
type Ranked struct {
	Candidate
	DistanceKm float64
}

// ValidateCoordinate checks that lat is within [-90,90] and lon within [-180,180].
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return ErrInvalidCoordinate
	}
	if lat < -90 || lat > 90 {
		return ErrInvalidCoordinate
	}
	if lon < -180 || lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Distance returns the great-circle distance in kilometers between two
// coordinate pairs given in decimal degrees. It uses the spherical law of
// cosines with R = 6371 km.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlon := radians(lon2 - lon1)

	cosine := math.Cos(rlat1)*math.Cos(rlat2)*math.Cos(dlon) +
		math.Sin(rlat1)*math.Sin(rlat2)

	// Floating point rounding can push the cosine a hair outside [-1,1],
	// which would make Acos return NaN for identical points.
	if cosine > 1 {
		cosine = 1
	} else if cosine < -1 {
		cosine = -1
	}

	return earthRadiusKm * math.Acos(cosine)
}

// Rank orders candidates by great-circle distance from the origin, ascending,
// and drops any candidate farther than radiusKm. Candidates at equal distance
// are ordered by venue ID ascending so results are deterministic.
func Rank(originLat, originLon, radiusKm float64, candidates []Candidate) ([]Ranked, error) {
	if err := ValidateCoordinate(originLat, originLon); err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		d := Distance(originLat, originLon, c.Latitude, c.Longitude)
		if d > radiusKm {
			continue
		}
		ranked = append(ranked, Ranked{Candidate: c, DistanceKm: d})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].VenueID < ranked[j].VenueID
	})

	return ranked, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
