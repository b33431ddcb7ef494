package gateway

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrServiceNotFound は論理サービス名がレジストリに登録されていない場合のエラー。
// 呼び出し側はこのエラーを404相当のServiceResponseに変換する。
var ErrServiceNotFound = errors.New("サービスが登録されていません")

// ServiceRegistry は論理サービス名からベースURLへのマッピングを管理する。
// リクエスト処理中の大量の並行読み取りと、トポロジ変更時の稀な書き込みを
// RWMutexで保護する。プロセス生存期間のみ有効で、永続化しない。
type ServiceRegistry struct {
	// mu はurlsマップを保護する読み書きロック。
	mu sync.RWMutex
	// urls は論理サービス名からベースURLへのマップ。
	urls map[string]string
}

// NewServiceRegistry は初期マッピングを登録済みの状態でレジストリを生成する。
// 初期マッピングは起動時に静的設定（環境変数）から構築される。
func NewServiceRegistry(initial map[string]string) *ServiceRegistry {
	urls := make(map[string]string, len(initial))
	for name, url := range initial {
		urls[name] = url
	}
	return &ServiceRegistry{urls: urls}
}

// Resolve は論理サービス名をベースURLに解決する。
// 未登録の場合はErrServiceNotFoundを返す。
func (r *ServiceRegistry) Resolve(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.urls[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return url, nil
}

// Register はサービスを登録する。既に登録済みの場合はURLを上書きする（冪等）。
func (r *ServiceRegistry) Register(name, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls[name] = url
}

// Unregister はサービスの登録を解除する。未登録の場合は何もしない。
func (r *ServiceRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.urls, name)
}

// IsRegistered はサービスが登録済みかどうかを返す。
func (r *ServiceRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.urls[name]
	return ok
}

// Names は登録済みのサービス名を辞書順で返す。
// 管理用エンドポイントの一覧表示で使用する。
func (r *ServiceRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.urls))
	for name := range r.urls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
