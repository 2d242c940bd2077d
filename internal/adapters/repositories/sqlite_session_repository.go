package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"navigation-session-service/internal/domain"
	"time"
)

// SQLite-backed implementation of the SessionRepository port.
type SqliteSessionRepository struct{ DB *sql.DB }

func NewSqliteSessionRepository(db *sql.DB) *SqliteSessionRepository {
	return &SqliteSessionRepository{DB: db}
}

func (s *SqliteSessionRepository) SaveSession(ctx context.Context, sess *domain.Session) error {
	if s.DB == nil {
		return errors.New("sqlite session repository: DB is nil")
	}

	row, err := toRow(sess)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO sessions (
		session_id,
		phase,
		origin_lat,
		origin_lng,
		destination_lat,
		destination_lng,
		route_status,
		route_payload,
		permissions,
		created_at,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = s.DB.ExecContext(ctx, query,
		row.ID, row.Phase,
		row.OriginLat, row.OriginLng,
		row.DestLat, row.DestLng,
		row.RouteStatus, row.RoutePayload, row.Permissions,
		sess.CreatedAt.UnixMilli(), sess.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	return nil
}

func (s *SqliteSessionRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite session repository: DB is nil")
	}

	query := `
	SELECT
		session_id,
		phase,
		origin_lat,
		origin_lng,
		destination_lat,
		destination_lng,
		route_status,
		route_payload,
		permissions,
		created_at,
		updated_at
	FROM sessions
	WHERE session_id = ?;
	`

	var row sessionRow
	var createdAt, updatedAt int64
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&row.ID, &row.Phase,
		&row.OriginLat, &row.OriginLng,
		&row.DestLat, &row.DestLng,
		&row.RouteStatus, &row.RoutePayload, &row.Permissions,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	sess, err := row.toSession()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.CreatedAt = time.UnixMilli(createdAt).UTC()
	sess.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return sess, nil
}

func (s *SqliteSessionRepository) DeleteSession(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("sqlite session repository: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?;`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
