package gateway

import (
	"net/http"
	"testing"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		role   Role
		method string
		path   string
		want   bool
	}{
		// CLIENT: 閲覧とレビュー投稿のみ
		{"CLIENTは客室一覧を閲覧できる", RoleClient, http.MethodGet, "/api/rooms", true},
		{"CLIENTは予約一覧を閲覧できる", RoleClient, http.MethodGet, "/api/bookings", true},
		{"CLIENTはレビューを投稿できる", RoleClient, http.MethodPost, "/api/reviews", true},
		{"CLIENTは予約を作成できない", RoleClient, http.MethodPost, "/api/bookings", false},
		{"CLIENTは客室を削除できない", RoleClient, http.MethodDelete, "/api/rooms/5", false},
		{"CLIENTはユーザーを更新できない", RoleClient, http.MethodPut, "/api/users/1", false},

		// EMPLOYEE: 客室・予約・一般ユーザーの操作
		{"EMPLOYEEは客室を削除できる", RoleEmployee, http.MethodDelete, "/api/rooms/5", true},
		{"EMPLOYEEは予約を作成できる", RoleEmployee, http.MethodPost, "/api/bookings", true},
		{"EMPLOYEEは一般ユーザーを更新できる", RoleEmployee, http.MethodPut, "/api/users/1", true},
		{"EMPLOYEEは管理者領域のユーザー操作はできない", RoleEmployee, http.MethodPost, "/api/users/admin/promote", false},
		{"EMPLOYEEは無関係のパスにアクセスできない", RoleEmployee, http.MethodPost, "/api/settings", false},

		// MANAGER: 全閲覧と統計
		{"MANAGERは全データを閲覧できる", RoleManager, http.MethodGet, "/api/users/admin/list", true},
		{"MANAGERは統計を操作できる", RoleManager, http.MethodPost, "/api/statistics/recalculate", true},
		{"MANAGERは客室を削除できない", RoleManager, http.MethodDelete, "/api/rooms/5", false},

		// ADMINISTRATOR: 無条件許可
		{"ADMINISTRATORは任意の操作ができる", RoleAdministrator, http.MethodDelete, "/api/users/admin/1", true},
		{"ADMINISTRATORは統計も操作できる", RoleAdministrator, http.MethodPatch, "/api/statistics", true},

		// 不明なロールはフェイルクローズド
		{"不明なロールは拒否される", Role("GUEST"), http.MethodGet, "/api/rooms", false},
		{"空のロールは拒否される", Role(""), http.MethodGet, "/api/rooms", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Authorize(tt.role, tt.method, tt.path); got != tt.want {
				t.Errorf("Authorize(%q, %q, %q) = %v, want %v", tt.role, tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestAuthorizeDeterminism(t *testing.T) {
	t.Parallel()

	t.Run("同じ入力に対して常に同じ判定を返す", func(t *testing.T) {
		t.Parallel()

		first := Authorize(RoleClient, http.MethodPost, "/api/reviews")
		for i := 0; i < 100; i++ {
			if got := Authorize(RoleClient, http.MethodPost, "/api/reviews"); got != first {
				t.Fatalf("%d回目の判定が変化した: %v -> %v", i, first, got)
			}
		}
	})
}
