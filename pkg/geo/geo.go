// Package geo provides great-circle distance and bounding box math for
// provider proximity search and distance-gated matching. Pure math only;
// coordinate resolution lives in pkg/geocode.
package geo

import (
	"fmt"
	"math"
)

const (
	// earthRadiusMiles is the mean Earth radius used for haversine distances.
	earthRadiusMiles = 3959.0

	// milesPerDegreeLat is the approximate north-south span of one degree of latitude.
	milesPerDegreeLat = 69.0

	// minCosLat keeps the longitude delta finite when the center sits at a pole.
	minCosLat = 1e-10
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both axes are finite and within legal range.
// Invalid coordinates are treated as absent everywhere downstream.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// BoundingBox is an axis-aligned lat/lon rectangle approximating a circular
// search radius. Used to pre-filter providers before exact haversine ranking.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}

// HaversineMiles returns the great-circle distance between two points.
// Identical points return exactly 0.
func HaversineMiles(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(math.Min(1, h)))
}

// NewBoundingBox derives the box covering radiusMiles around center.
// A negative radius is a caller bug and panics; degraded scraped data never
// reaches this function with a negative radius through the public surfaces.
func NewBoundingBox(center Coordinate, radiusMiles float64) BoundingBox {
	if radiusMiles < 0 {
		panic(fmt.Sprintf("geo: negative search radius %f", radiusMiles))
	}

	latDelta := radiusMiles / milesPerDegreeLat

	cosLat := math.Cos(toRadians(center.Latitude))
	if cosLat < minCosLat {
		cosLat = minCosLat
	}
	lonDelta := radiusMiles / (milesPerDegreeLat * cosLat)

	return BoundingBox{
		MinLat: center.Latitude - latDelta,
		MaxLat: center.Latitude + latDelta,
		MinLon: center.Longitude - lonDelta,
		MaxLon: center.Longitude + lonDelta,
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
