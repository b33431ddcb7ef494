package gateway

import (
	"log"
	"net/http"
	"strings"
)

// Role はゲートウェイを通過するユーザーの役割。
// JWTトークンのroleクレームから取得する。
type Role string

const (
	// RoleClient はホテルの宿泊客。閲覧とレビュー投稿のみ許可される。
	RoleClient Role = "CLIENT"
	// RoleEmployee はホテルの従業員。客室・予約・一般ユーザーの操作が許可される。
	RoleEmployee Role = "EMPLOYEE"
	// RoleManager はホテルの支配人。全データの閲覧と統計の操作が許可される。
	RoleManager Role = "MANAGER"
	// RoleAdministrator はシステム管理者。全操作が許可される。
	RoleAdministrator Role = "ADMINISTRATOR"
)

// authzDecision は認可ハンドラの判定結果。
type authzDecision int

const (
	// decisionDelegate は自分の担当ロールではないため次のハンドラに委譲する。
	decisionDelegate authzDecision = iota
	// decisionAllow はアクセスを許可してチェーンを終了する。
	decisionAllow
	// decisionDeny はアクセスを拒否してチェーンを終了する。
	decisionDeny
)

// authzHandler はロール・メソッド・パスの3つ組に対する認可判定関数。
// 判定は純粋関数であり、同じ入力に対して常に同じ結果を返す。
type authzHandler func(role Role, method, path string) authzDecision

// authzChain は責務チェーン。先頭から順に評価し、Allow/Denyを返した
// ハンドラで終了する。どのハンドラも担当しなかった場合は拒否する
// （フェイルクローズド）。
var authzChain = []authzHandler{
	clientHandler,
	employeeHandler,
	managerHandler,
	administratorHandler,
}

// Authorize は(ロール, メソッド, パス)の3つ組に対する認可判定を行う。
// 不明なロール（トークン不正・期限切れ・未認証を含む）は常に拒否する。
func Authorize(role Role, method, path string) bool {
	for _, handler := range authzChain {
		switch handler(role, method, path) {
		case decisionAllow:
			return true
		case decisionDeny:
			log.Printf("[Authz] アクセス拒否: role=%s method=%s path=%s", role, method, path)
			return false
		case decisionDelegate:
			// 次のハンドラへ
		}
	}

	log.Printf("[Authz] 不明なロールを拒否: role=%q method=%s path=%s", role, method, path)
	return false
}

// clientHandler は宿泊客（CLIENT）の認可判定。
// 閲覧（GET）とレビュー投稿（POSTかつパスに/reviewsを含む）のみ許可する。
func clientHandler(role Role, method, path string) authzDecision {
	if role != RoleClient {
		return decisionDelegate
	}
	if method == http.MethodGet ||
		(method == http.MethodPost && strings.Contains(path, "/reviews")) {
		return decisionAllow
	}
	return decisionDeny
}

// employeeHandler は従業員（EMPLOYEE）の認可判定。
// 客室・予約の操作と、管理者領域を除くユーザー操作を許可する。
func employeeHandler(role Role, method, path string) authzDecision {
	if role != RoleEmployee {
		return decisionDelegate
	}
	if strings.Contains(path, "/rooms") || strings.Contains(path, "/bookings") ||
		(strings.Contains(path, "/users") && !strings.Contains(path, "/admin")) {
		return decisionAllow
	}
	return decisionDeny
}

// managerHandler は支配人（MANAGER）の認可判定。
// 全データの閲覧（GET）と統計エンドポイントの操作を許可する。
func managerHandler(role Role, method, path string) authzDecision {
	if role != RoleManager {
		return decisionDelegate
	}
	if method == http.MethodGet || strings.Contains(path, "/statistics") {
		return decisionAllow
	}
	return decisionDeny
}

// administratorHandler はシステム管理者（ADMINISTRATOR）の認可判定。
// 全ての操作を無条件に許可する。
func administratorHandler(role Role, _, _ string) authzDecision {
	if role != RoleAdministrator {
		return decisionDelegate
	}
	return decisionAllow
}
