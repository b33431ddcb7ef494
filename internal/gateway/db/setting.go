package db

import (
	"context"
	"time"
)

const getSetting = `
SELECT id, setting_key, setting_value, description, created_at, updated_at
FROM configuration_settings
WHERE setting_key = ?
`

// GetSetting は設定値をキーで取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetSetting(ctx context.Context, key string) (ConfigurationSetting, error) {
	var s ConfigurationSetting
	var createdAt, updatedAt string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(
		&s.ID,
		&s.SettingKey,
		&s.SettingValue,
		&s.Description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return ConfigurationSetting{}, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

const upsertSetting = `
INSERT INTO configuration_settings (setting_key, setting_value, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(setting_key) DO UPDATE SET
	setting_value = excluded.setting_value,
	description = excluded.description,
	updated_at = excluded.updated_at
`

// UpsertSettingParams はUpsertSettingのパラメータ。
type UpsertSettingParams struct {
	SettingKey   string
	SettingValue string
	Description  string
}

// UpsertSetting は設定値を登録する。既存キーの場合は値を上書きする。
func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	now := formatTime(time.Now())
	_, err := q.db.ExecContext(ctx, upsertSetting,
		arg.SettingKey,
		arg.SettingValue,
		arg.Description,
		now,
		now,
	)
	return err
}
