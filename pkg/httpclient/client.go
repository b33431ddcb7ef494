package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client はアップストリームサービスへのHTTP転送を行うクライアント。
// 接続プールとタイムアウトをゲートウェイ全体で共有する。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
}

// New は新しいアップストリーム転送用HTTPクライアントを生成する。
// timeoutは1回のアップストリーム呼び出し全体（接続〜ボディ受信）の上限。
func New(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Response はアップストリームから正常に受信できたHTTPレスポンス。
// 4xx/5xxもエラーではなくResponseとして返す（ステータスの解釈は呼び出し側の責務）。
type Response struct {
	// StatusCode はアップストリームが返したHTTPステータスコード。
	StatusCode int
	// Header はアップストリームが返したレスポンスヘッダー。
	Header http.Header
	// Body はアップストリームが返したレスポンスボディ。
	Body []byte
}

// Do は指定メソッド・URLでアップストリームにリクエストを転送する。
// headerはそのままコピーして送信する。トランスポート障害（接続失敗、
// タイムアウト、ボディ読み取り失敗）の場合のみエラーを返す。
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	// コンテキストからユーザーIDを伝播する
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyUserID はコンテキストにユーザーIDを格納するためのキー。
const contextKeyUserID contextKey = "user_id"

// WithUserID はコンテキストにユーザーIDを設定する。
// アップストリーム転送時にX-User-IDヘッダーとして伝播される。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
