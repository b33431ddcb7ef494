package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	gatewaydb "github.com/hotelchain/gateway/internal/gateway/db"
)

// sessionTTL はセッションの有効期間。作成時とtouch時に適用される。
const sessionTTL = 24 * time.Hour

// SessionValidator はセッションの有効性判定とライフサイクル操作を提供する。
// リクエスト経路ではIsActiveによる読み取りのみ行い、セッションの変更は
// 明示的なtouch/invalidate操作に限られる。
type SessionValidator struct {
	// queries はセッションテーブルへのクエリ実行オブジェクト。
	queries *gatewaydb.Queries
}

// NewSessionValidator は新しいSessionValidatorを生成する。
func NewSessionValidator(queries *gatewaydb.Queries) *SessionValidator {
	return &SessionValidator{queries: queries}
}

// IsActive はセッションが現在有効かどうかを返す。
// 存在しない・無効化済み・期限切れのいずれの場合もfalseを返す。
func (v *SessionValidator) IsActive(ctx context.Context, sessionID string) bool {
	session, err := v.queries.GetSession(ctx, sessionID)
	if err != nil {
		return false
	}
	return session.IsActive && session.ExpiresAt.After(time.Now().UTC())
}

// Create は指定ユーザーの新しいセッションを発行し、セッションIDを返す。
func (v *SessionValidator) Create(ctx context.Context, userID int64) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	if err := v.queries.CreateSession(ctx, gatewaydb.CreateSessionParams{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}); err != nil {
		return "", fmt.Errorf("セッションの作成に失敗: %w", err)
	}
	return id, nil
}

// Touch は有効なセッションの有効期限を現在時刻から延長する。
func (v *SessionValidator) Touch(ctx context.Context, sessionID string) error {
	if err := v.queries.TouchSession(ctx, gatewaydb.TouchSessionParams{
		ID:        sessionID,
		ExpiresAt: time.Now().UTC().Add(sessionTTL),
	}); err != nil {
		return fmt.Errorf("セッションの延長に失敗: %w", err)
	}
	return nil
}

// Invalidate はセッションを無効化する。無効化後のIsActiveは常にfalseとなる。
func (v *SessionValidator) Invalidate(ctx context.Context, sessionID string) error {
	if err := v.queries.InvalidateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの無効化に失敗: %w", err)
	}
	return nil
}

// PurgeExpired は期限切れセッションを削除し、削除件数を返す。
// バックグラウンドの定期清掃から呼び出される。
func (v *SessionValidator) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := v.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}
	return deleted, nil
}
