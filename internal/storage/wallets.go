package storage

import (
	"context"
	"fmt"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

const walletColumns = `id, user_id, name, address, network, balance, last_sync_at, is_active, created_at`

func scanWallet(row scanner) (*models.Wallet, error) {
	var w models.Wallet
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Address, &w.Network, &w.Balance,
		&w.LastSyncAt, &w.IsActive, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWallet сохраняет новый кошелёк.
func (s *Storage) CreateWallet(ctx context.Context, w models.Wallet) error {
	const op = "storage.CreateWallet"
	query := `INSERT INTO wallets (` + walletColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := s.DB.ExecContext(ctx, query, w.ID, w.UserID, w.Name, w.Address, w.Network,
		w.Balance, w.LastSyncAt, w.IsActive, w.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListWalletsByUser возвращает кошельки пользователя.
func (s *Storage) ListWalletsByUser(ctx context.Context, userID string) ([]*models.Wallet, error) {
	const op = "storage.ListWalletsByUser"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY created_at, network`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ResetBalances в одной транзакции выставляет баланс каждого переданного кошелька.
// Кошелёк ищется по паре (user_id, network): существующий перезаписывается,
// отсутствующий создаётся.
func (s *Storage) ResetBalances(ctx context.Context, wallets []models.Wallet) error {
	const op = "storage.ResetBalances"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, w := range wallets {
		res, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = $3, last_sync_at = now()
			 WHERE user_id = $1 AND network = $2`, w.UserID, w.Network, w.Balance)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO wallets (`+walletColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			w.ID, w.UserID, w.Name, w.Address, w.Network, w.Balance, w.LastSyncAt, w.IsActive, w.CreatedAt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
