// Package db はゲートウェイのローカル永続化層（SQLite）へのクエリを提供する。
//
// ゲートウェイ自身が所有する状態はリクエストログ・セッション・設定値のみで、
// ドメインサービスのデータは一切保持しない。クエリ層はsqlcスタイルの
// 薄いラッパーとして手書きしている。
package db

import (
	"context"
	"database/sql"
)

// DBTX はクエリ実行に必要なデータベース操作のインタフェース。
// *sql.DBと*sql.Txの両方が満たす。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New はクエリ実行オブジェクトを生成する。
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries はゲートウェイDBへのクエリをまとめた実行オブジェクト。
type Queries struct {
	db DBTX
}

// WithTx はトランザクション上で動作するクエリ実行オブジェクトを返す。
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
