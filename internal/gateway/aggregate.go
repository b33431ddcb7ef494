package gateway

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatedResponse は複数サービスへの並行呼び出しの結果をまとめたレスポンス。
// dataには要求されたサービス名ごとに必ず1エントリ含まれる（成功・失敗を問わず）。
type AggregatedResponse struct {
	// Data はサービス名からそのサービスの呼び出し結果へのマップ。
	Data map[string]*ServiceResponse `json:"data"`
	// Status は集約処理全体のステータス。
	Status string `json:"status"`
	// Message は集約結果の概要メッセージ。
	Message string `json:"message"`
	// ResponseTimeMs はファンアウト全体にかかった時間（ミリ秒）。
	// 並行実行のため、最も遅い1件の呼び出し時間に近い値となる。
	ResponseTimeMs int64 `json:"response_time_ms"`
}

// healthEndpoint は集約時に各サービスへ問い合わせるヘルスチェックパス。
const healthEndpoint = "/api/health"

// Aggregate は指定された全サービスのヘルス状態を並行に取得して集約する。
// 1つのサービスの障害が他のサービスの結果に影響することはなく、
// 全ての呼び出しが完了（またはタイムアウト）するまで待ってから結果を返す。
func (f *Forwarder) Aggregate(ctx context.Context, serviceNames ...string) *AggregatedResponse {
	start := time.Now()

	// 各ブランチは自分のインデックスにのみ書き込むため、ロックは不要。
	results := make([]*ServiceResponse, len(serviceNames))

	var g errgroup.Group
	for i, name := range serviceNames {
		i, name := i, name
		g.Go(func() error {
			// Routeは障害もエンベロープに正規化するため、エラーは返さない
			results[i] = f.Route(ctx, name, healthEndpoint, http.MethodGet, nil, nil)
			return nil
		})
	}
	_ = g.Wait()

	data := make(map[string]*ServiceResponse, len(serviceNames))
	for i, name := range serviceNames {
		data[name] = results[i]
	}

	return &AggregatedResponse{
		Data:           data,
		Status:         "success",
		Message:        "データの集約に成功しました",
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
}
