package db

import (
	"context"
	"time"
)

const createSession = `
INSERT INTO sessions (id, user_id, created_at, expires_at, is_active)
VALUES (?, ?, ?, ?, 1)
`

// CreateSessionParams はCreateSessionのパラメータ。
type CreateSessionParams struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CreateSession は有効状態のセッションを新規作成する。
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.UserID,
		formatTime(arg.CreatedAt),
		formatTime(arg.ExpiresAt),
	)
	return err
}

const getSession = `
SELECT id, user_id, created_at, expires_at, is_active
FROM sessions
WHERE id = ?
`

// GetSession はセッションをIDで取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	var s Session
	var createdAt, expiresAt string
	err := q.db.QueryRowContext(ctx, getSession, id).Scan(
		&s.ID,
		&s.UserID,
		&createdAt,
		&expiresAt,
		&s.IsActive,
	)
	if err != nil {
		return Session{}, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.ExpiresAt = parseTime(expiresAt)
	return s, nil
}

const touchSession = `
UPDATE sessions SET expires_at = ? WHERE id = ? AND is_active = 1
`

// TouchSessionParams はTouchSessionのパラメータ。
type TouchSessionParams struct {
	ID        string
	ExpiresAt time.Time
}

// TouchSession は有効なセッションの有効期限を延長する。
func (q *Queries) TouchSession(ctx context.Context, arg TouchSessionParams) error {
	_, err := q.db.ExecContext(ctx, touchSession, formatTime(arg.ExpiresAt), arg.ID)
	return err
}

const invalidateSession = `
UPDATE sessions SET is_active = 0 WHERE id = ?
`

// InvalidateSession はセッションを無効化する。
func (q *Queries) InvalidateSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, invalidateSession, id)
	return err
}

const deleteExpiredSessions = `
DELETE FROM sessions WHERE expires_at < datetime('now')
`

// DeleteExpiredSessions は有効期限切れのセッションを削除し、削除件数を返す。
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
