package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"time"
)

// SQLSessionRepository is the Postgres implementation of SessionRepository.
// It expects a *sql.DB opened with the pgx driver (see platform/db).
type SQLSessionRepository struct {
	DB *sql.DB
}

func NewSQLSessionRepository(db *sql.DB) *SQLSessionRepository {
	return &SQLSessionRepository{DB: db}
}

func (s *SQLSessionRepository) SaveSession(ctx context.Context, sess *domain.Session) (err error) {
	defer obs.Time(ctx, "session.repo.SaveSession")(&err)

	if s.DB == nil {
		return errors.New("session repository: db is nil")
	}

	row, err := toRow(sess)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	var payload any
	if row.RoutePayload != nil {
		payload = string(row.RoutePayload)
	}

	q := `
	INSERT INTO sessions (
		session_id, phase, origin_lat, origin_lng, destination_lat, destination_lng,
		route_status, route_payload, permissions, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (session_id) DO UPDATE
	SET phase = EXCLUDED.phase,
		origin_lat = EXCLUDED.origin_lat,
		origin_lng = EXCLUDED.origin_lng,
		destination_lat = EXCLUDED.destination_lat,
		destination_lng = EXCLUDED.destination_lng,
		route_status = EXCLUDED.route_status,
		route_payload = EXCLUDED.route_payload,
		permissions = EXCLUDED.permissions,
		updated_at = EXCLUDED.updated_at;
	`
	_, err = s.DB.ExecContext(ctx, q,
		row.ID, row.Phase,
		row.OriginLat, row.OriginLng,
		row.DestLat, row.DestLng,
		row.RouteStatus, payload, row.Permissions,
		sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLSessionRepository) GetSession(ctx context.Context, id string) (_ *domain.Session, err error) {
	defer obs.Time(ctx, "session.repo.GetSession")(&err)

	if s.DB == nil {
		return nil, errors.New("session repository: db is nil")
	}

	q := `
	SELECT session_id, phase, origin_lat, origin_lng, destination_lat, destination_lng,
		route_status, route_payload, permissions, created_at, updated_at
	FROM sessions
	WHERE session_id = $1;
	`

	var row sessionRow
	var payload sql.NullString
	var createdAt, updatedAt time.Time
	err = s.DB.QueryRowContext(ctx, q, id).Scan(
		&row.ID, &row.Phase,
		&row.OriginLat, &row.OriginLng,
		&row.DestLat, &row.DestLng,
		&row.RouteStatus, &payload, &row.Permissions,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if payload.Valid {
		row.RoutePayload = []byte(payload.String)
	}

	sess, err := row.toSession()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.CreatedAt = createdAt.UTC()
	sess.UpdatedAt = updatedAt.UTC()

	return sess, nil
}

func (s *SQLSessionRepository) DeleteSession(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("session repository: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1;`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
