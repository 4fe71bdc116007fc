// Package geo provides great-circle distance and radius containment checks.
// This is the single shared implementation used by every matching path;
// call sites must pass the vendor's actual service radius, never a literal.
package geo

import (
	"fmt"
	"math"

	"fixmarket_backend/platform/apperr"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Validate checks the coordinate is within range. Out-of-range input is an
// error rather than a silently wrong distance.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return apperr.Validation(fmt.Sprintf("latitude %v out of range [-90, 90]", p.Lat)).
			WithCode(apperr.CodeInvalidCoordinate)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return apperr.Validation(fmt.Sprintf("longitude %v out of range [-180, 180]", p.Lon)).
			WithCode(apperr.CodeInvalidCoordinate)
	}
	return nil
}

// Distance returns the great-circle distance in kilometers between two points.
func Distance(a, b Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c, nil
}

// WithinRadius reports whether point lies within radiusKm of origin.
func WithinRadius(origin, point Point, radiusKm float64) (bool, error) {
	if radiusKm < 0 {
		return false, apperr.Validation("radius must be non-negative").
			WithCode(apperr.CodeInvalidCoordinate)
	}
	dist, err := Distance(origin, point)
	if err != nil {
		return false, err
	}
	return dist <= radiusKm, nil
}
