package gateway

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	gatewaydb "github.com/hotelchain/gateway/internal/gateway/db"
	"github.com/hotelchain/gateway/pkg/middleware"
)

// headerKeySessionID はクライアントがセッションIDを渡すHTTPヘッダーキー。
const headerKeySessionID = "X-Session-ID"

// RequestLogger はゲートウェイを通過した全リクエストの結果を記録する。
// 記録はベストエフォートで、永続化の失敗がリクエスト処理に影響することはない。
type RequestLogger struct {
	// queries はリクエストログテーブルへのクエリ実行オブジェクト。
	queries *gatewaydb.Queries
}

// NewRequestLogger は新しいRequestLoggerを生成する。
func NewRequestLogger(queries *gatewaydb.Queries) *RequestLogger {
	return &RequestLogger{queries: queries}
}

// Log はリクエストの記録を1件永続化する。
// 失敗しても診断ログに出力するだけで、エラーは呼び出し元に伝えない。
func (l *RequestLogger) Log(sessionID, endpoint, method string, statusCode int, elapsed time.Duration, userID *int64) {
	// リクエスト本体のコンテキストとは独立したタイムアウトで書き込む
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[RequestLog] ログ書き込み中にパニックが発生: %v", r)
		}
	}()

	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	if err := l.queries.CreateRequestLog(ctx, gatewaydb.CreateRequestLogParams{
		SessionID:      sessionID,
		Endpoint:       endpoint,
		Method:         method,
		StatusCode:     int64(statusCode),
		ResponseTimeMs: elapsed.Milliseconds(),
		UserID:         nullUserID,
		Timestamp:      time.Now().UTC(),
	}); err != nil {
		log.Printf("[RequestLog] リクエストログの保存に失敗: %v", err)
	}
}

// Middleware はリクエストのライフサイクル全体を計測して記録するGinミドルウェアを返す。
// 記録はレスポンス確定後に別goroutineで行い、レスポンス経路をブロックしない。
func (l *RequestLogger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		endpoint := c.Request.URL.Path
		method := c.Request.Method
		sessionID := c.GetHeader(headerKeySessionID)

		c.Next()

		statusCode := c.Writer.Status()
		elapsed := time.Since(start)

		var userID *int64
		if id, ok := middleware.GetUserID(c); ok {
			userID = &id
		}

		go l.Log(sessionID, endpoint, method, statusCode, elapsed, userID)
	}
}
