package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

const subscriptionColumns = `id, user_id, plan_id, status, payment_tx_hash, created_at, expires_at`

func scanSubscription(row scanner) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.PaymentTxHash,
		&sub.CreatedAt, &sub.ExpiresAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription сохраняет подписку пользователя.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.CreateSubscription"
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.PaymentTxHash, sub.CreatedAt, sub.ExpiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return sub, nil
}

// LatestSubscriptionByUser возвращает последнюю оформленную подписку пользователя.
func (s *Storage) LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.LatestSubscriptionByUser"
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return sub, nil
}

// ListSubscriptionsByStatus возвращает подписки с указанным статусом, старые первыми.
func (s *Storage) ListSubscriptionsByStatus(ctx context.Context, status string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByStatus"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// TransitionSubscription меняет статус подписки с from на to. Возвращает false,
// если подписка не находилась в статусе from.
func (s *Storage) TransitionSubscription(ctx context.Context, id, from, to string, expiresAt *time.Time) (bool, error) {
	const op = "storage.TransitionSubscription"
	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = $3, expires_at = COALESCE($4, expires_at)
		 WHERE id = $1 AND status = $2`, id, from, to, expiresAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
