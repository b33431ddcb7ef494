package db

import (
	"context"
	"database/sql"
	"time"
)

const createRequestLog = `
INSERT INTO request_logs (session_id, endpoint, method, status_code, response_time_ms, user_id, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// CreateRequestLogParams はCreateRequestLogのパラメータ。
type CreateRequestLogParams struct {
	SessionID      string
	Endpoint       string
	Method         string
	StatusCode     int64
	ResponseTimeMs int64
	UserID         sql.NullInt64
	Timestamp      time.Time
}

// CreateRequestLog はリクエストログを1件追記する。
func (q *Queries) CreateRequestLog(ctx context.Context, arg CreateRequestLogParams) error {
	_, err := q.db.ExecContext(ctx, createRequestLog,
		arg.SessionID,
		arg.Endpoint,
		arg.Method,
		arg.StatusCode,
		arg.ResponseTimeMs,
		arg.UserID,
		formatTime(arg.Timestamp),
	)
	return err
}

const listRequestLogsBySession = `
SELECT id, session_id, endpoint, method, status_code, response_time_ms, user_id, timestamp
FROM request_logs
WHERE session_id = ?
ORDER BY id
`

// ListRequestLogsBySession は指定セッションのリクエストログを時系列順に返す。
func (q *Queries) ListRequestLogsBySession(ctx context.Context, sessionID string) ([]RequestLog, error) {
	rows, err := q.db.QueryContext(ctx, listRequestLogsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var logs []RequestLog
	for rows.Next() {
		var l RequestLog
		var timestamp string
		if err := rows.Scan(
			&l.ID,
			&l.SessionID,
			&l.Endpoint,
			&l.Method,
			&l.StatusCode,
			&l.ResponseTimeMs,
			&l.UserID,
			&timestamp,
		); err != nil {
			return nil, err
		}
		l.Timestamp = parseTime(timestamp)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

const averageResponseTimeByEndpoint = `
SELECT AVG(response_time_ms)
FROM request_logs
WHERE endpoint = ?
`

// AverageResponseTimeByEndpoint は指定エンドポイントの平均応答時間（ミリ秒）を返す。
// 該当ログが1件もない場合はNULL（Valid=false）となる。
func (q *Queries) AverageResponseTimeByEndpoint(ctx context.Context, endpoint string) (sql.NullFloat64, error) {
	var avg sql.NullFloat64
	err := q.db.QueryRowContext(ctx, averageResponseTimeByEndpoint, endpoint).Scan(&avg)
	return avg, err
}

const countRequestLogs = `
SELECT COUNT(*) FROM request_logs
`

// CountRequestLogs はリクエストログの総件数を返す。
func (q *Queries) CountRequestLogs(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRequestLogs).Scan(&count)
	return count, err
}
