package db

import "time"

// timeLayout はSQLiteに保存する日時のフォーマット。
// SQLiteのdatetime('now')と同じ形式（UTC）に揃えることで、
// SQL内の日時比較を文字列比較として安全に行える。
const timeLayout = "2006-01-02 15:04:05"

// formatTime は日時をSQLite保存用の文字列に変換する。
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime はSQLiteに保存された日時文字列をtime.Timeに変換する。
// 変換できない場合はゼロ値を返す。
func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
