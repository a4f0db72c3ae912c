// Package transaction реализует жизненный цикл смоделированных транзакций:
// создание со списанием с кошелька, отложенное завершение и ручные обновления.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/txhash"
	"github.com/ledgersandbox/ledger-sandbox/internal/metrics"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// CompletedRoutingKey — ключ маршрутизации события о завершении транзакции.
const CompletedRoutingKey = "completed"

// Repository описывает хранилище транзакций.
type Repository interface {
	CreateTransactionWithDebit(ctx context.Context, t models.Transaction) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	UpdateTransaction(ctx context.Context, t models.Transaction, expectedStatus string) (bool, error)
	CompleteDue(ctx context.Context, now time.Time) ([]*models.Transaction, error)
}

// ReceiverSource отдаёт текущий адрес получателя комиссии.
type ReceiverSource interface {
	Get() string
}

// Publisher публикует события жизненного цикла.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Options настраивает Service.
type Options struct {
	// CompletionDelay — через сколько pending-транзакция становится completed.
	CompletionDelay time.Duration
	// MinAmount — минимальная сумма транзакции. Нулевое значение отключает проверку.
	MinAmount decimal.Decimal
}

// CompletedEvent публикуется для каждой завершённой транзакции.
type CompletedEvent struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Network       string    `json:"network"`
	Amount        string    `json:"amount"`
	TxHash        string    `json:"txHash"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Service управляет транзакциями.
type Service struct {
	repo      Repository
	receiver  ReceiverSource
	publisher Publisher
	opts      Options
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт Service.
func New(repo Repository, receiver ReceiverSource, publisher Publisher, opts Options, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		receiver:  receiver,
		publisher: publisher,
		opts:      opts,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create принимает запрос пользователя userID, списывает сумму с его кошелька в
// сети запроса (не ниже нуля) и сохраняет транзакцию в статусе pending.
// Без подтверждённой оплаты комиссии запрос отклоняется до обращения к хранилищу.
func (s *Service) Create(ctx context.Context, userID string, req models.NewTransaction) (*models.Transaction, error) {
	const op = "transaction.Create"

	if !req.GasFeePaid {
		metrics.TransactionsRejected.WithLabelValues("gas_fee_required").Inc()
		return nil, fmt.Errorf("%s: %w", op, models.ErrGasFeeRequired)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		metrics.TransactionsRejected.WithLabelValues("invalid_amount").Inc()
		return nil, fmt.Errorf("%s: amount %q: %w", op, req.Amount, models.ErrValidation)
	}
	if amount.LessThan(s.opts.MinAmount) {
		metrics.TransactionsRejected.WithLabelValues("amount_too_low").Inc()
		return nil, fmt.Errorf("%s: %s < %s: %w", op, amount, s.opts.MinAmount, models.ErrAmountTooLow)
	}
	gasFee, err := optionalDecimal(req.GasFee)
	if err != nil {
		return nil, fmt.Errorf("%s: gas fee: %w", op, err)
	}
	flashFee, err := optionalDecimal(req.FlashFee)
	if err != nil {
		return nil, fmt.Errorf("%s: flash fee: %w", op, err)
	}

	hash, err := txhash.New()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	flashAddress := req.FlashAddress
	if flashAddress == "" {
		flashAddress = s.receiver.Get()
	}

	now := s.now()
	t := models.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		FromAddress:  optionalString(req.FromAddress),
		ToAddress:    req.ToAddress,
		Amount:       amount,
		Token:        req.Token,
		Network:      req.Network,
		GasSpeed:     optionalString(req.GasSpeed),
		GasFee:       gasFee,
		GasFeePaid:   true,
		FlashFee:     flashFee,
		FlashAddress: flashAddress,
		Status:       models.StatusPending,
		TxHash:       hash,
		CompleteAt:   now.Add(s.opts.CompletionDelay),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.CreateTransactionWithDebit(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.TransactionsCreated.WithLabelValues(created.Network).Inc()
	if created.WalletID == nil {
		s.log.Warn("transaction recorded without a matching wallet",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.String("network", req.Network))
	}
	return created, nil
}

// Get возвращает транзакцию по ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// ListByUser возвращает транзакции пользователя.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return s.repo.ListTransactionsByUser(ctx, userID)
}

// Update применяет частичное обновление. Статус меняется только у pending-транзакций,
// завершённые транзакции в другой статус не переводятся.
func (s *Service) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	const op = "transaction.Update"

	current, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := *current
	if patch.Status != nil && *patch.Status != current.Status {
		if current.IsFinal() {
			return nil, fmt.Errorf("%s: %s -> %s: %w", op, current.Status, *patch.Status, models.ErrInvalidTransition)
		}
		next.Status = *patch.Status
	}
	if patch.GasFeePaid != nil {
		next.GasFeePaid = *patch.GasFeePaid
	}
	if patch.BlockNumber != nil {
		next.BlockNumber = patch.BlockNumber
	}
	if patch.Confirmations != nil {
		next.Confirmations = *patch.Confirmations
	}
	if patch.ErrorMessage != nil {
		next.ErrorMessage = patch.ErrorMessage
	}
	next.UpdatedAt = s.now()

	ok, err := s.repo.UpdateTransaction(ctx, next, current.Status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: transaction changed concurrently: %w", op, models.ErrInvalidTransition)
	}
	return &next, nil
}

// ConfirmGasPayment отмечает комиссию транзакции оплаченной или неоплаченной.
func (s *Service) ConfirmGasPayment(ctx context.Context, id string, confirmed bool) (*models.Transaction, error) {
	return s.Update(ctx, id, models.TransactionPatch{GasFeePaid: &confirmed})
}

// CompleteDue завершает все pending-транзакции, срок которых наступил, и
// возвращает их количество. Повторный вызов безопасен.
func (s *Service) CompleteDue(ctx context.Context) (int, error) {
	const op = "transaction.CompleteDue"

	done, err := s.repo.CompleteDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, t := range done {
		metrics.TransactionsCompleted.Inc()
		event := CompletedEvent{
			TransactionID: t.ID,
			UserID:        t.UserID,
			Network:       t.Network,
			Amount:        t.Amount.String(),
			TxHash:        t.TxHash,
			CompletedAt:   t.UpdatedAt,
		}
		if err := s.publisher.Publish(CompletedRoutingKey, event); err != nil {
			s.log.Error("failed to publish completion event",
				slog.String("op", op),
				slog.String("transaction_id", t.ID),
				sl.Err(err))
		}
	}
	return len(done), nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, errors.Join(models.ErrValidation, err)
	}
	return decimal.NewNullDecimal(d), nil
}
