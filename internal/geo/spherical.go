package geo

import (
	"math"
	"navigation-session-service/internal/domain"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Mean earth radius in meters, as used by the maps utility libraries.
const EarthRadiusMeters = 6371009.0

func toPoint(c domain.Coordinates) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
}

func fromPoint(p s2.Point) domain.Coordinates {
	ll := s2.LatLngFromPoint(p)
	return domain.Coordinates{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusMeters
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b domain.Coordinates) float64 {
	return angleToMeters(toPoint(a).Distance(toPoint(b)))
}

// Interpolate returns the point at fraction t along the great circle from a to b.
func Interpolate(a, b domain.Coordinates, t float64) domain.Coordinates {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return fromPoint(s2.Interpolate(t, toPoint(a), toPoint(b)))
}

// Heading returns the initial bearing from a to b in degrees within [-180, 180).
func Heading(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi

	return wrap(deg, -180, 180)
}

func wrap(v, lo, hi float64) float64 {
	if v >= lo && v < hi {
		return v
	}
	span := hi - lo
	return math.Mod(math.Mod(v-lo, span)+span, span) + lo
}

// DistanceToPath returns the distance in meters from c to the nearest point of path.
func DistanceToPath(c domain.Coordinates, path []domain.Coordinates) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return Distance(c, path[0])
	}

	lls := make([]s2.LatLng, 0, len(path))
	for _, p := range path {
		lls = append(lls, s2.LatLngFromDegrees(p.Lat, p.Lng))
	}
	line := s2.PolylineFromLatLngs(lls)

	pt := toPoint(c)
	nearest, _ := line.Project(pt)
	return angleToMeters(pt.Distance(nearest))
}

// IsLocationOnPath reports whether c lies within tolerance meters of path.
func IsLocationOnPath(c domain.Coordinates, path []domain.Coordinates, toleranceMeters float64) bool {
	return DistanceToPath(c, path) <= toleranceMeters
}
