// Package audit はゲートウェイの管理操作の監査レコードを提供する。
//
// サービスレジストリの変更やセッションの無効化など、システムの振る舞いを
// 変える操作を構造化されたレコードとして記録する。レコードはJSON形式で
// 診断ログに出力され、外部の監査基盤への転送はログ収集側の責務とする。
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Action は監査対象の操作種別。
type Action string

const (
	// ActionServiceRegistered はサービスレジストリへの登録操作。
	ActionServiceRegistered Action = "service.registered"
	// ActionServiceUnregistered はサービスレジストリからの登録解除操作。
	ActionServiceUnregistered Action = "service.unregistered"
	// ActionSessionInvalidated はセッションの明示的な無効化操作。
	ActionSessionInvalidated Action = "session.invalidated"
)

// Record は管理操作1件の監査レコード。
type Record struct {
	// ID はレコードの一意識別子（UUID）。
	ID string `json:"id"`
	// Action は操作種別。
	Action Action `json:"action"`
	// ActorID は操作を行ったユーザーのID。未認証の場合は0。
	ActorID int64 `json:"actor_id"`
	// Target は操作対象（サービス名・セッションIDなど）。
	Target string `json:"target"`
	// Detail は操作固有の付加情報。JSON形式で保持する。
	Detail json.RawMessage `json:"detail,omitempty"`
	// CreatedAt はレコードの生成時刻（UTC）。
	CreatedAt time.Time `json:"created_at"`
}

// New は新しい監査レコードを生成する。
// detailには操作固有のデータ構造体を渡す。JSON形式にシリアライズされる。
func New(action Action, actorID int64, target string, detail any) (*Record, error) {
	var jsonDetail json.RawMessage
	if detail != nil {
		encoded, err := json.Marshal(detail)
		if err != nil {
			return nil, fmt.Errorf("監査レコードの付加情報のシリアライズに失敗: %w", err)
		}
		jsonDetail = encoded
	}

	return &Record{
		ID:        uuid.New().String(),
		Action:    action,
		ActorID:   actorID,
		Target:    target,
		Detail:    jsonDetail,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodeDetail はレコードのDetailフィールドを指定された型にデシリアライズする。
func DecodeDetail[T any](r *Record) (*T, error) {
	var detail T
	if err := json.Unmarshal(r.Detail, &detail); err != nil {
		return nil, fmt.Errorf("監査レコードの付加情報のデシリアライズに失敗: %w", err)
	}
	return &detail, nil
}

// Emit は操作の監査レコードを生成して診断ログに出力する。
// レコードの生成に失敗してもログに残すだけで、操作自体は妨げない。
func Emit(action Action, actorID int64, target string, detail any) {
	record, err := New(action, actorID, target, detail)
	if err != nil {
		log.Printf("[Audit] 監査レコードの生成に失敗: %v", err)
		return
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		log.Printf("[Audit] 監査レコードのシリアライズに失敗: %v", err)
		return
	}
	log.Printf("[Audit] %s", encoded)
}
