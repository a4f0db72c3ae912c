// Package subscription реализует каталог тарифных планов и подписки пользователей
// с ручным подтверждением администратором.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

const (
	cacheTTL       = 5 * time.Minute
	adminPlanID    = "enterprise"
	adminPaymentTx = "reserved-admin"
)

var plans = []models.Plan{
	{
		ID:       "starter",
		Name:     "Starter",
		Price:    decimal.NewFromInt(500),
		Duration: 30 * 24 * time.Hour,
		Features: []string{"BTC and ETH networks", "Up to 10 transactions per day", "Email support"},
	},
	{
		ID:       "professional",
		Name:     "Professional",
		Price:    decimal.NewFromInt(1_500),
		Duration: 90 * 24 * time.Hour,
		Features: []string{"All networks", "Unlimited transactions", "Fast gas speed", "Priority support"},
	},
	{
		ID:       "enterprise",
		Name:     "Enterprise",
		Price:    decimal.NewFromInt(5_000),
		Duration: 365 * 24 * time.Hour,
		Features: []string{"All networks", "Unlimited transactions", "Custom fee receiver", "Dedicated support"},
	},
}

// Repository описывает хранилище подписок.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) error
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error)
	ListSubscriptionsByStatus(ctx context.Context, status string) ([]*models.Subscription, error)
	TransitionSubscription(ctx context.Context, id, from, to string, expiresAt *time.Time) (bool, error)
}

// UserDirectory даёт доступ к пользователям.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AdminSet определяет зарезервированных администраторов.
type AdminSet interface {
	Contains(username string) bool
}

// Cache кэширует подписку пользователя.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует операции над подписками.
type Service struct {
	repo   Repository
	users  UserDirectory
	admins AdminSet
	cache  Cache
	log    *slog.Logger
	now    func() time.Time
}

// New создаёт Service.
func New(repo Repository, users UserDirectory, admins AdminSet, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		admins: admins,
		cache:  cache,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListPlans возвращает статический каталог планов.
func (s *Service) ListPlans() []models.Plan {
	out := make([]models.Plan, len(plans))
	copy(out, plans)
	return out
}

// Plan возвращает план по ID.
func (s *Service) Plan(id string) (models.Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}

// Create оформляет подписку в статусе pending. Хэш оплаты не проверяется,
// подписка активируется только после подтверждения администратором.
func (s *Service) Create(ctx context.Context, req models.NewSubscription) (*models.Subscription, error) {
	const op = "subscription.Create"

	if _, ok := s.Plan(req.PlanID); !ok {
		return nil, fmt.Errorf("%s: plan %q: %w", op, req.PlanID, models.ErrNotFound)
	}
	if _, err := s.users.GetUserByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := models.Subscription{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		PlanID:        req.PlanID,
		Status:        models.SubscriptionPending,
		PaymentTxHash: req.PaymentTxHash,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, sub.UserID)
	return &sub, nil
}

// GetUserSubscription возвращает последнюю подписку пользователя.
// Зарезервированные администраторы всегда получают активную подписку без записи в базе.
// Активная подписка с истёкшим сроком возвращается в статусе expired.
func (s *Service) GetUserSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "subscription.GetUserSubscription"

	var sub models.Subscription
	found, err := s.cache.Get(ctx, cacheKey(userID), &sub)
	if err != nil {
		s.log.Warn("subscription cache read failed", slog.String("op", op), sl.Err(err))
	}
	if !found {
		loaded, err := s.load(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sub = *loaded
		if err := s.cache.Set(ctx, cacheKey(userID), sub, cacheTTL); err != nil {
			s.log.Warn("subscription cache write failed", slog.String("op", op), sl.Err(err))
		}
	}

	if sub.Status == models.SubscriptionActive && sub.ExpiresAt != nil && !s.now().Before(*sub.ExpiresAt) {
		sub.Status = models.SubscriptionExpired
	}
	return &sub, nil
}

func (s *Service) load(ctx context.Context, userID string) (*models.Subscription, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.admins.Contains(user.Username) {
		return &models.Subscription{
			ID:            "admin-" + user.ID,
			UserID:        user.ID,
			PlanID:        adminPlanID,
			Status:        models.SubscriptionActive,
			PaymentTxHash: adminPaymentTx,
			CreatedAt:     user.CreatedAt,
		}, nil
	}
	return s.repo.LatestSubscriptionByUser(ctx, userID)
}

// ListPending возвращает подписки, ожидающие решения администратора.
func (s *Service) ListPending(ctx context.Context) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptionsByStatus(ctx, models.SubscriptionPending)
}

// Approve переводит подписку из pending в active и выставляет срок окончания по плану.
func (s *Service) Approve(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "subscription.Approve"

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan, ok := s.Plan(sub.PlanID)
	if !ok {
		return nil, fmt.Errorf("%s: plan %q: %w", op, sub.PlanID, models.ErrNotFound)
	}
	expiresAt := s.now().Add(plan.Duration)
	return s.transition(ctx, op, sub, models.SubscriptionActive, &expiresAt)
}

// Reject переводит подписку из pending в rejected.
func (s *Service) Reject(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "subscription.Reject"

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.transition(ctx, op, sub, models.SubscriptionRejected, nil)
}

func (s *Service) transition(ctx context.Context, op string, sub *models.Subscription, to string, expiresAt *time.Time) (*models.Subscription, error) {
	ok, err := s.repo.TransitionSubscription(ctx, sub.ID, models.SubscriptionPending, to, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, sub.Status, to, models.ErrInvalidTransition)
	}
	s.invalidate(ctx, sub.UserID)

	sub.Status = to
	if expiresAt != nil {
		sub.ExpiresAt = expiresAt
	}
	s.log.Info("subscription reviewed",
		slog.String("subscription_id", sub.ID),
		slog.String("status", to))
	return sub, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, cacheKey(userID)); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("subscription cache invalidation failed", slog.String("user_id", userID), sl.Err(err))
	}
}

func cacheKey(userID string) string {
	return "subscription:" + userID
}
