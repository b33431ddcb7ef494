// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// ユーザー管理・客室管理・予約レビューの各サービスへの単一の入口として、
// サービスレジストリによる名前解決、ロールベースの認可チェーン、
// アップストリームへの転送、複数サービスの並行呼び出しと集約、
// 全リクエストの記録を担当する。外部からアクセス可能な唯一のサービスであり、
// セキュリティの境界線として機能する。
package gateway
