// Package httpclient はゲートウェイからアップストリームサービスへの
// HTTP転送を行うクライアントを提供する。
//
// 転送クライアントは全ルートで共有され、接続プールと上限タイムアウトを
// 一元管理する。トランスポート障害のみをエラーとして返し、アップストリームの
// アプリケーションエラー（4xx/5xx）はレスポンスとしてそのまま返す。
package httpclient
