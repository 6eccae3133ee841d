package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries is the hand-written query layer over the sessions and messages
// tables.
type Queries struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

type SessionRow struct {
	ID                int64
	SessionKey        string
	CreatedAt         time.Time
	LastActiveAt      time.Time
	IsActive          bool
	PreferredLanguage string
}

type MessageRow struct {
	ID              int64
	SessionID       int64
	Role            string
	Content         string
	CreatedAt       time.Time
	Language        string
	ResponseTimeMs  int64
	CacheHit        bool
	Source          string
	AvailableImages []string
	ImageCount      int32
}

type AddMessageParams struct {
	SessionID       int64
	Role            string
	Content         string
	Language        string
	ResponseTimeMs  int64
	CacheHit        bool
	Source          string
	AvailableImages []string
	ImageCount      int32
}

const sessionColumns = `id, session_key, created_at, last_active_at, is_active, preferred_language`

func (q *Queries) GetSessionByKey(ctx context.Context, key string) (SessionRow, error) {
	var row SessionRow
	err := q.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_key = $1 AND is_active`, key,
	).Scan(&row.ID, &row.SessionKey, &row.CreatedAt, &row.LastActiveAt, &row.IsActive, &row.PreferredLanguage)
	return row, err
}

func (q *Queries) CreateSession(ctx context.Context, key, preferredLanguage string) (SessionRow, error) {
	var row SessionRow
	err := q.db.QueryRow(ctx,
		`INSERT INTO sessions (session_key, preferred_language)
		 VALUES ($1, $2)
		 ON CONFLICT (session_key)
		 DO UPDATE SET last_active_at = now()
		 RETURNING `+sessionColumns, key, preferredLanguage,
	).Scan(&row.ID, &row.SessionKey, &row.CreatedAt, &row.LastActiveAt, &row.IsActive, &row.PreferredLanguage)
	return row, err
}

func (q *Queries) TouchSession(ctx context.Context, key string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE sessions SET last_active_at = now() WHERE session_key = $1`, key)
	return err
}

// DeactivateSession soft-deletes a session, preserving its messages for
// audit. The key is archived under a suffixed name so a later reference to
// the same key yields a fresh empty session instead of the old history.
func (q *Queries) DeactivateSession(ctx context.Context, key string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE sessions
		 SET is_active = FALSE,
		     session_key = session_key || ':cleared:' || (extract(epoch FROM now()) * 1000)::bigint
		 WHERE session_key = $1 AND is_active`, key)
	return err
}

func (q *Queries) AddMessage(ctx context.Context, arg AddMessageParams) error {
	if arg.AvailableImages == nil {
		arg.AvailableImages = []string{}
	}
	_, err := q.db.Exec(ctx,
		`INSERT INTO messages (session_id, role, content, language, response_time_ms, cache_hit, source, available_images, image_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		arg.SessionID, arg.Role, arg.Content, arg.Language, arg.ResponseTimeMs,
		arg.CacheHit, arg.Source, arg.AvailableImages, arg.ImageCount)
	return err
}

func (q *Queries) GetSessionMessages(ctx context.Context, sessionID int64) ([]MessageRow, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, session_id, role, content, created_at, language, response_time_ms, cache_hit, source, available_images, image_count
		 FROM messages WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt,
			&m.Language, &m.ResponseTimeMs, &m.CacheHit, &m.Source,
			&m.AvailableImages, &m.ImageCount); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (q *Queries) CountActiveSessions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE is_active`).Scan(&n)
	return n, err
}

func (q *Queries) CountMessages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages m JOIN sessions s ON s.id = m.session_id WHERE s.is_active`).Scan(&n)
	return n, err
}
