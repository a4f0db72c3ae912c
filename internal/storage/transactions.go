package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

const transactionColumns = `id, user_id, wallet_id, from_address, to_address, amount, token, network,
	gas_speed, gas_fee, gas_fee_paid, flash_fee, flash_address, status, tx_hash, block_number,
	confirmations, error_message, complete_at, created_at, updated_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                                       models.Transaction
		walletID, fromAddr, gasSpeed, errorText sql.NullString
		blockNumber                             sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.UserID, &walletID, &fromAddr, &t.ToAddress, &t.Amount, &t.Token,
		&t.Network, &gasSpeed, &t.GasFee, &t.GasFeePaid, &t.FlashFee, &t.FlashAddress, &t.Status,
		&t.TxHash, &blockNumber, &t.Confirmations, &errorText, &t.CompleteAt, &t.CreatedAt,
		&t.UpdatedAt); err != nil {
		return nil, err
	}
	t.WalletID = stringPtr(walletID)
	t.FromAddress = stringPtr(fromAddr)
	t.GasSpeed = stringPtr(gasSpeed)
	t.ErrorMessage = stringPtr(errorText)
	if blockNumber.Valid {
		n := blockNumber.Int64
		t.BlockNumber = &n
	}
	return &t, nil
}

// CreateTransactionWithDebit в одной транзакции БД списывает сумму с кошелька
// пользователя в сети t.Network и сохраняет транзакцию. Списание выполняется
// одним UPDATE, баланс не опускается ниже нуля. Если кошелька нет, транзакция
// сохраняется без WalletID. Возвращает сохранённую запись.
func (s *Storage) CreateTransactionWithDebit(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	const op = "storage.CreateTransactionWithDebit"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var walletID string
	err = tx.QueryRowContext(ctx,
		`UPDATE wallets
		 SET balance = GREATEST(balance - $1::numeric, 0), last_sync_at = now()
		 WHERE id = (
		     SELECT id FROM wallets
		     WHERE user_id = $2 AND network = $3 AND is_active
		     ORDER BY created_at
		     LIMIT 1
		 )
		 RETURNING id`, t.Amount, t.UserID, t.Network).Scan(&walletID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		t.WalletID = nil
	case err != nil:
		return nil, fmt.Errorf("%s: debit wallet: %w", op, err)
	default:
		t.WalletID = &walletID
	}

	query := `INSERT INTO transactions (` + transactionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	var blockNumber sql.NullInt64
	if t.BlockNumber != nil {
		blockNumber = sql.NullInt64{Int64: *t.BlockNumber, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, query, t.ID, t.UserID, nullString(t.WalletID), nullString(t.FromAddress),
		t.ToAddress, t.Amount, t.Token, t.Network, nullString(t.GasSpeed), t.GasFee, t.GasFeePaid, t.FlashFee,
		t.FlashAddress, t.Status, t.TxHash, blockNumber, t.Confirmations, nullString(t.ErrorMessage),
		t.CompleteAt, t.CreatedAt, t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

// GetTransaction возвращает транзакцию по ID.
func (s *Storage) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	const op = "storage.GetTransaction"
	t, err := scanTransaction(s.DB.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return t, nil
}

// ListTransactionsByUser возвращает транзакции пользователя, новые первыми.
func (s *Storage) ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	const op = "storage.ListTransactionsByUser"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return collectTransactions(op, rows)
}

// UpdateTransaction сохраняет изменяемые поля транзакции, если её статус в базе
// всё ещё равен expectedStatus. Возвращает false, если запись изменилась раньше.
func (s *Storage) UpdateTransaction(ctx context.Context, t models.Transaction, expectedStatus string) (bool, error) {
	const op = "storage.UpdateTransaction"
	var blockNumber sql.NullInt64
	if t.BlockNumber != nil {
		blockNumber = sql.NullInt64{Int64: *t.BlockNumber, Valid: true}
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions
		 SET status = $2, gas_fee_paid = $3, block_number = $4, confirmations = $5,
		     error_message = $6, updated_at = $7
		 WHERE id = $1 AND status = $8`,
		t.ID, t.Status, t.GasFeePaid, blockNumber, t.Confirmations, nullString(t.ErrorMessage),
		t.UpdatedAt, expectedStatus)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// CompleteDue переводит в completed все pending-транзакции со сроком завершения
// не позже now и возвращает их. Повторный вызов не затрагивает уже завершённые записи.
func (s *Storage) CompleteDue(ctx context.Context, now time.Time) ([]*models.Transaction, error) {
	const op = "storage.CompleteDue"
	rows, err := s.DB.QueryContext(ctx,
		`UPDATE transactions
		 SET status = 'completed', updated_at = $1
		 WHERE status = 'pending' AND complete_at <= $1
		 RETURNING `+transactionColumns, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return collectTransactions(op, rows)
}

func collectTransactions(op string, rows *sql.Rows) ([]*models.Transaction, error) {
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
