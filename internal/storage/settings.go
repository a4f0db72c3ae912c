package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting возвращает значение настройки. ok == false, если настройка не задана.
func (s *Storage) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	const op = "storage.GetSetting"
	err = s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

// PutSetting сохраняет значение настройки, перезаписывая предыдущее.
func (s *Storage) PutSetting(ctx context.Context, key, value string) error {
	const op = "storage.PutSetting"
	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
