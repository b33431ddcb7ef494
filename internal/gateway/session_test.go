package gateway

import (
	"context"
	"testing"
	"time"

	gatewaydb "github.com/hotelchain/gateway/internal/gateway/db"
)

func TestSessionValidatorLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("作成直後のセッションは有効", func(t *testing.T) {
		t.Parallel()

		validator := NewSessionValidator(newTestQueries(t))
		ctx := context.Background()

		id, err := validator.Create(ctx, 42)
		if err != nil {
			t.Fatalf("セッション作成に失敗: %v", err)
		}
		if id == "" {
			t.Fatal("セッションIDが空")
		}
		if !validator.IsActive(ctx, id) {
			t.Error("作成直後のセッションがIsActive=falseになっている")
		}
	})

	t.Run("存在しないセッションは無効", func(t *testing.T) {
		t.Parallel()

		validator := NewSessionValidator(newTestQueries(t))
		if validator.IsActive(context.Background(), "no-such-session") {
			t.Error("存在しないセッションがIsActive=trueになっている")
		}
	})

	t.Run("無効化したセッションは有効にならない", func(t *testing.T) {
		t.Parallel()

		validator := NewSessionValidator(newTestQueries(t))
		ctx := context.Background()

		id, err := validator.Create(ctx, 42)
		if err != nil {
			t.Fatalf("セッション作成に失敗: %v", err)
		}
		if err := validator.Invalidate(ctx, id); err != nil {
			t.Fatalf("セッション無効化に失敗: %v", err)
		}
		if validator.IsActive(ctx, id) {
			t.Error("無効化済みセッションがIsActive=trueになっている")
		}

		// 無効化済みセッションはtouchしても復活しない
		if err := validator.Touch(ctx, id); err != nil {
			t.Fatalf("touchに失敗: %v", err)
		}
		if validator.IsActive(ctx, id) {
			t.Error("touch後に無効化済みセッションが復活している")
		}
	})

	t.Run("期限切れセッションは無効", func(t *testing.T) {
		t.Parallel()

		queries := newTestQueries(t)
		validator := NewSessionValidator(queries)
		ctx := context.Background()

		// 有効期限が過去のセッションを直接挿入する
		past := time.Now().UTC().Add(-1 * time.Hour)
		if err := queries.CreateSession(ctx, gatewaydb.CreateSessionParams{
			ID:        "expired-session",
			UserID:    7,
			CreatedAt: past.Add(-24 * time.Hour),
			ExpiresAt: past,
		}); err != nil {
			t.Fatalf("期限切れセッションの挿入に失敗: %v", err)
		}

		if validator.IsActive(ctx, "expired-session") {
			t.Error("期限切れセッションがIsActive=trueになっている")
		}
	})

	t.Run("touchで有効期限が延長される", func(t *testing.T) {
		t.Parallel()

		queries := newTestQueries(t)
		validator := NewSessionValidator(queries)
		ctx := context.Background()

		id, err := validator.Create(ctx, 42)
		if err != nil {
			t.Fatalf("セッション作成に失敗: %v", err)
		}
		before, err := queries.GetSession(ctx, id)
		if err != nil {
			t.Fatalf("セッション取得に失敗: %v", err)
		}

		// 有効期限の秒精度の差を確実にする
		time.Sleep(1100 * time.Millisecond)

		if err := validator.Touch(ctx, id); err != nil {
			t.Fatalf("touchに失敗: %v", err)
		}
		after, err := queries.GetSession(ctx, id)
		if err != nil {
			t.Fatalf("セッション取得に失敗: %v", err)
		}

		if !after.ExpiresAt.After(before.ExpiresAt) {
			t.Errorf("touch後の有効期限が延長されていない: before=%v after=%v", before.ExpiresAt, after.ExpiresAt)
		}
	})
}

func TestSessionValidatorPurgeExpired(t *testing.T) {
	t.Parallel()

	t.Run("期限切れセッションのみ削除される", func(t *testing.T) {
		t.Parallel()

		queries := newTestQueries(t)
		validator := NewSessionValidator(queries)
		ctx := context.Background()

		activeID, err := validator.Create(ctx, 1)
		if err != nil {
			t.Fatalf("セッション作成に失敗: %v", err)
		}

		past := time.Now().UTC().Add(-48 * time.Hour)
		for _, id := range []string{"expired-1", "expired-2"} {
			if err := queries.CreateSession(ctx, gatewaydb.CreateSessionParams{
				ID:        id,
				UserID:    2,
				CreatedAt: past,
				ExpiresAt: past.Add(24 * time.Hour),
			}); err != nil {
				t.Fatalf("期限切れセッションの挿入に失敗: %v", err)
			}
		}

		deleted, err := validator.PurgeExpired(ctx)
		if err != nil {
			t.Fatalf("清掃に失敗: %v", err)
		}
		if deleted != 2 {
			t.Errorf("削除件数 = %d, want 2", deleted)
		}
		if !validator.IsActive(ctx, activeID) {
			t.Error("有効なセッションまで削除されている")
		}
	})
}
