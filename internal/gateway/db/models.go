package db

import (
	"database/sql"
	"time"
)

// RequestLog はゲートウェイを通過した1リクエストの記録。
// 追記専用で、ゲートウェイ自身が更新・削除することはない。
type RequestLog struct {
	// ID は自動採番の主キー。
	ID int64
	// SessionID はリクエスト元のセッションID。不明な場合は空文字列。
	SessionID string
	// Endpoint はリクエストされたパス。
	Endpoint string
	// Method はHTTPメソッド。
	Method string
	// StatusCode はクライアントに返したHTTPステータスコード。
	StatusCode int64
	// ResponseTimeMs はリクエスト受信からレスポンス完了までのミリ秒。
	ResponseTimeMs int64
	// UserID は認証済みユーザーのID。未認証の場合はNULL。
	UserID sql.NullInt64
	// Timestamp はリクエスト完了日時（UTC）。
	Timestamp time.Time
}

// Session はユーザーのセッション。発行は外部のセッションストアが行い、
// ゲートウェイは有効性の確認とtouch/invalidate操作のみ行う。
type Session struct {
	// ID はセッションの一意識別子（UUID）。
	ID string
	// UserID はセッションの所有ユーザーのID。
	UserID int64
	// CreatedAt はセッションの作成日時（UTC）。
	CreatedAt time.Time
	// ExpiresAt はセッションの有効期限（UTC）。
	ExpiresAt time.Time
	// IsActive はセッションが有効かどうか。invalidateでfalseになる。
	IsActive bool
}

// ConfigurationSetting はゲートウェイの動作設定のキー・バリュー。
type ConfigurationSetting struct {
	// ID は自動採番の主キー。
	ID int64
	// SettingKey は設定キー（一意）。
	SettingKey string
	// SettingValue は設定値。
	SettingValue string
	// Description は設定の説明。
	Description string
	// CreatedAt は作成日時（UTC）。
	CreatedAt time.Time
	// UpdatedAt は最終更新日時（UTC）。
	UpdatedAt time.Time
}
