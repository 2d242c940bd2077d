package domain

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session closed")
	ErrLocationPermission = errors.New("location permission not granted")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Phase gates session behavior. A session only moves forward.
type Phase int

const (
	PhaseNoOrigin Phase = iota
	PhaseOriginOnly
	PhaseDestinationSet
)

func (p Phase) String() string {
	switch p {
	case PhaseNoOrigin:
		return "no_origin"
	case PhaseOriginOnly:
		return "origin_only"
	case PhaseDestinationSet:
		return "destination_set"
	default:
		return "unknown"
	}
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "no_origin":
		return PhaseNoOrigin, true
	case "origin_only":
		return PhaseOriginOnly, true
	case "destination_set":
		return PhaseDestinationSet, true
	}
	return PhaseNoOrigin, false
}

type Permission string

const (
	PermissionFineLocation   Permission = "fine_location"
	PermissionCoarseLocation Permission = "coarse_location"
)

// ParsePermission accepts the short names and the Android manifest names.
func ParsePermission(s string) (Permission, bool) {
	switch s {
	case string(PermissionFineLocation), "android.permission.ACCESS_FINE_LOCATION":
		return PermissionFineLocation, true
	case string(PermissionCoarseLocation), "android.permission.ACCESS_COARSE_LOCATION":
		return PermissionCoarseLocation, true
	}
	return "", false
}

// Request code attached to location permission requests.
const LocationPermissionRequestCode = 123

// Navigation session aggregate.
// Origin is fixed by the first location fix and never overwritten.
// Destination is accepted at most once.
type Session struct {
	ID          string
	Phase       Phase
	Origin      *Coordinates
	Destination *Coordinates
	Route       *Route
	RouteStatus RouteStatus
	Permissions map[Permission]bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:          id,
		Phase:       PhaseNoOrigin,
		RouteStatus: RouteNone,
		Permissions: map[Permission]bool{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Grant records granted permissions.
func (s *Session) Grant(perms ...Permission) {
	if s.Permissions == nil {
		s.Permissions = map[Permission]bool{}
	}
	for _, p := range perms {
		s.Permissions[p] = true
	}
}

// LocationGranted reports whether the fine location permission was granted.
func (s *Session) LocationGranted() bool {
	return s.Permissions[PermissionFineLocation]
}

// ObserveFix records the first fix as Origin.
// It returns true only when this call fixed the origin.
func (s *Session) ObserveFix(fix LocationFix, now time.Time) bool {
	if s.Origin != nil {
		return false
	}

	origin := fix.Position
	s.Origin = &origin
	if s.Phase == PhaseNoOrigin {
		s.Phase = PhaseOriginOnly
	}
	s.UpdatedAt = now
	return true
}

// SelectDestination accepts the first destination and ignores the rest.
func (s *Session) SelectDestination(c Coordinates, now time.Time) bool {
	if s.Destination != nil {
		return false
	}

	dest := c
	s.Destination = &dest
	s.Phase = PhaseDestinationSet
	s.UpdatedAt = now
	return true
}

// Routable reports whether both route endpoints are known.
func (s *Session) Routable() bool {
	return s.Origin != nil && s.Destination != nil
}

func (s *Session) SetRoute(r *Route, status RouteStatus, now time.Time) {
	s.Route = r
	s.RouteStatus = status
	s.UpdatedAt = now
}

// Clone returns a deep copy safe to hand outside the session loop.
func (s *Session) Clone() *Session {
	out := *s
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Destination != nil {
		d := *s.Destination
		out.Destination = &d
	}
	if s.Route != nil {
		r := *s.Route
		r.Points = append([]Coordinates(nil), s.Route.Points...)
		out.Route = &r
	}
	out.Permissions = make(map[Permission]bool, len(s.Permissions))
	for k, v := range s.Permissions {
		out.Permissions[k] = v
	}
	return &out
}
