package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hotelchain/gateway/pkg/httpclient"
)

// ServiceResponse はアップストリーム呼び出しの結果を表す統一エンベロープ。
// 成功・アプリケーションエラー・トランスポート障害のいずれも同じ形で表現し、
// Forwarderはこのエンベロープ以外を呼び出し元に返さない（エラーを返さない）。
type ServiceResponse struct {
	// Data はアップストリームが返したレスポンスボディ。
	// JSONの場合はそのまま、JSON以外は文字列として埋め込む。
	Data json.RawMessage `json:"data"`
	// Success はステータスコードが2xxだったかどうか。
	// トランスポート障害の場合は常にfalse。
	Success bool `json:"success"`
	// Message は結果の概要メッセージ。
	Message string `json:"message"`
	// StatusCode はアップストリームのHTTPステータスコード。
	// サービス未登録は404、トランスポート障害は500のセンチネル値。
	StatusCode int `json:"status_code"`
	// ServiceName は呼び出し先の論理サービス名。
	ServiceName string `json:"service_name"`
	// ResponseTimeMs は呼び出しにかかった時間（ミリ秒）。
	ResponseTimeMs int64 `json:"response_time_ms"`

	// RawBody はアップストリームのボディそのもの。素通し転送で使用する。
	// エンベロープのJSONには含めない。
	RawBody []byte `json:"-"`
	// ContentType はアップストリームのContent-Typeヘッダー。
	ContentType string `json:"-"`
}

// supportedMethods はゲートウェイが転送を許可するHTTPメソッド。
// これ以外のメソッドは設定ミスとして転送前に拒否する。
var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
	http.MethodPatch:  {},
}

// Forwarder はインバウンドの論理リクエストをアップストリームのHTTP呼び出しに
// 変換する同期プロキシ。転送先はServiceRegistryで解決する。
type Forwarder struct {
	// registry は論理サービス名の解決に使用するレジストリ。
	registry *ServiceRegistry
	// client はアップストリーム転送用の共有HTTPクライアント。
	client *httpclient.Client
}

// NewForwarder は新しいForwarderを生成する。
func NewForwarder(registry *ServiceRegistry, client *httpclient.Client) *Forwarder {
	return &Forwarder{
		registry: registry,
		client:   client,
	}
}

// Route は論理サービスへのリクエストを転送し、結果をエンベロープで返す。
// どのような障害でもエンベロープに正規化し、決してエラーを返さない。
// アップストリームの4xx/5xxはステータスとボディをそのまま保持して返す。
func (f *Forwarder) Route(ctx context.Context, serviceName, endpoint, method string, body []byte, header http.Header) *ServiceResponse {
	start := time.Now()

	baseURL, err := f.registry.Resolve(serviceName)
	if err != nil {
		return failureResponse(serviceName, http.StatusNotFound,
			"サービスが見つかりません: "+serviceName, start)
	}

	if _, ok := supportedMethods[method]; !ok {
		log.Printf("[Forwarder] サポート外メソッドの転送を拒否: service=%s method=%s", serviceName, method)
		return failureResponse(serviceName, http.StatusInternalServerError,
			"サポートされていないHTTPメソッド: "+method, start)
	}

	outHeader := forwardableHeader(header)

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	resp, err := f.client.Do(ctx, method, baseURL+endpoint, bodyReader, outHeader)
	if err != nil {
		log.Printf("[Forwarder] アップストリーム呼び出しに失敗: service=%s endpoint=%s error=%v", serviceName, endpoint, err)
		return failureResponse(serviceName, http.StatusInternalServerError,
			"サービスエラー: "+err.Error(), start)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	message := "リクエストに成功しました"
	if !success {
		message = "アップストリームサービスがエラーを返しました"
	}

	return &ServiceResponse{
		Data:           envelopeData(resp.Body),
		Success:        success,
		Message:        message,
		StatusCode:     resp.StatusCode,
		ServiceName:    serviceName,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		RawBody:        resp.Body,
		ContentType:    resp.Header.Get("Content-Type"),
	}
}

// failureResponse はアップストリームに到達できなかった場合の失敗エンベロープを生成する。
func failureResponse(serviceName string, statusCode int, message string, start time.Time) *ServiceResponse {
	return &ServiceResponse{
		Success:        false,
		Message:        message,
		StatusCode:     statusCode,
		ServiceName:    serviceName,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
}

// forwardableHeader は呼び出し元のヘッダーを転送用にコピーする。
// ヘッダーはそのまま引き継ぐが、空のAuthorizationヘッダーは伝播しない。
func forwardableHeader(header http.Header) http.Header {
	out := make(http.Header, len(header))
	for key, values := range header {
		for _, v := range values {
			out.Add(key, v)
		}
	}
	if out.Get("Authorization") == "" {
		out.Del("Authorization")
	}
	return out
}

// envelopeData はアップストリームのボディをエンベロープのdataフィールドに変換する。
// 有効なJSONはそのまま埋め込み、それ以外は文字列としてエンコードする。
func envelopeData(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return json.RawMessage(encoded)
}
