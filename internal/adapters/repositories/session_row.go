package repositories

import (
	"database/sql"
	"fmt"
	"navigation-session-service/internal/adapters/routecodec"
	"navigation-session-service/internal/domain"
	"sort"
	"strings"
)

// Column values shared by the SQLite and Postgres repositories.
type sessionRow struct {
	ID           string
	Phase        string
	OriginLat    sql.NullFloat64
	OriginLng    sql.NullFloat64
	DestLat      sql.NullFloat64
	DestLng      sql.NullFloat64
	RouteStatus  string
	RoutePayload []byte
	Permissions  string
}

func toRow(s *domain.Session) (sessionRow, error) {
	row := sessionRow{
		ID:          s.ID,
		Phase:       s.Phase.String(),
		RouteStatus: string(s.RouteStatus),
	}

	if s.Origin != nil {
		row.OriginLat = sql.NullFloat64{Float64: s.Origin.Lat, Valid: true}
		row.OriginLng = sql.NullFloat64{Float64: s.Origin.Lng, Valid: true}
	}
	if s.Destination != nil {
		row.DestLat = sql.NullFloat64{Float64: s.Destination.Lat, Valid: true}
		row.DestLng = sql.NullFloat64{Float64: s.Destination.Lng, Valid: true}
	}
	if s.Route != nil {
		b, err := routecodec.Marshal(*s.Route)
		if err != nil {
			return sessionRow{}, fmt.Errorf("session %s: %w", s.ID, err)
		}
		row.RoutePayload = b
	}

	perms := make([]string, 0, len(s.Permissions))
	for p, granted := range s.Permissions {
		if granted {
			perms = append(perms, string(p))
		}
	}
	sort.Strings(perms)
	row.Permissions = strings.Join(perms, ",")

	return row, nil
}

func (r sessionRow) toSession() (*domain.Session, error) {
	phase, ok := domain.ParsePhase(r.Phase)
	if !ok {
		return nil, fmt.Errorf("session %s: unknown phase %q", r.ID, r.Phase)
	}

	s := &domain.Session{
		ID:          r.ID,
		Phase:       phase,
		RouteStatus: domain.RouteStatus(r.RouteStatus),
		Permissions: map[domain.Permission]bool{},
	}

	if r.OriginLat.Valid && r.OriginLng.Valid {
		s.Origin = &domain.Coordinates{Lat: r.OriginLat.Float64, Lng: r.OriginLng.Float64}
	}
	if r.DestLat.Valid && r.DestLng.Valid {
		s.Destination = &domain.Coordinates{Lat: r.DestLat.Float64, Lng: r.DestLng.Float64}
	}
	if len(r.RoutePayload) > 0 {
		route, err := routecodec.Unmarshal(r.RoutePayload)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", r.ID, err)
		}
		s.Route = &route
	}
	for _, p := range strings.Split(r.Permissions, ",") {
		if p != "" {
			s.Permissions[domain.Permission(p)] = true
		}
	}

	return s, nil
}
