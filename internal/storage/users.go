package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email = stringPtr(email)
	return &u, nil
}

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.DB.ExecContext(ctx, query, u.ID, u.Username, nullString(u.Email), u.PasswordHash,
		u.FirstName, u.LastName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapUniqueViolation(err))
	}
	return nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по имени без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, username`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser перезаписывает изменяемые поля пользователя.
func (s *Storage) UpdateUser(ctx context.Context, u models.User) error {
	const op = "storage.UpdateUser"

	query := `UPDATE users
			  SET username = $2, email = $3, first_name = $4, last_name = $5,
			      role = $6, is_active = $7, updated_at = $8
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, u.ID, u.Username, nullString(u.Email), u.FirstName,
		u.LastName, u.Role, u.IsActive, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapUniqueViolation(err))
	}
	return affectedOrNotFound(op, res)
}

// UpdatePassword заменяет хэш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdatePassword"
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}

// DeleteUser удаляет пользователя вместе с его кошельками, транзакциями и подписками.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}

func affectedOrNotFound(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
