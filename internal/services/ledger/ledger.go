// Package ledger управляет кошельками пользователей и их стартовыми балансами.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgersandbox/ledger-sandbox/internal/metrics"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// WalletRepository описывает хранилище кошельков.
type WalletRepository interface {
	CreateWallet(ctx context.Context, w models.Wallet) error
	ListWalletsByUser(ctx context.Context, userID string) ([]*models.Wallet, error)
	ResetBalances(ctx context.Context, wallets []models.Wallet) error
}

// UserDirectory даёт доступ к пользователям.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// AdminSet определяет зарезервированных администраторов.
type AdminSet interface {
	Contains(username string) bool
}

// Стартовые балансы. Зарезервированные администраторы получают повышенные значения.
var (
	AdminSeed = map[string]decimal.Decimal{
		models.NetworkBTC: decimal.NewFromInt(1_000),
		models.NetworkETH: decimal.NewFromInt(50_000),
		models.NetworkTRX: decimal.NewFromInt(100_000_000),
		models.NetworkBSC: decimal.NewFromInt(500_000),
	}
	UserSeed = map[string]decimal.Decimal{
		models.NetworkBTC: decimal.NewFromInt(10),
		models.NetworkETH: decimal.NewFromInt(500),
		models.NetworkTRX: decimal.NewFromInt(1_000_000),
		models.NetworkBSC: decimal.NewFromInt(5_000),
	}
)

var walletNames = map[string]string{
	models.NetworkBTC: "Bitcoin Wallet",
	models.NetworkETH: "Ethereum Wallet",
	models.NetworkTRX: "Tron Wallet",
	models.NetworkBSC: "BNB Smart Chain Wallet",
}

// Service реализует операции над кошельками.
type Service struct {
	wallets WalletRepository
	users   UserDirectory
	admins  AdminSet
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт Service.
func New(wallets WalletRepository, users UserDirectory, admins AdminSet, log *slog.Logger) *Service {
	return &Service{
		wallets: wallets,
		users:   users,
		admins:  admins,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetWalletsByUser возвращает кошельки пользователя.
func (s *Service) GetWalletsByUser(ctx context.Context, userID string) ([]*models.Wallet, error) {
	return s.wallets.ListWalletsByUser(ctx, userID)
}

// CreateWallet создаёт кошелёк. Пустой баланс считается нулевым.
func (s *Service) CreateWallet(ctx context.Context, req models.NewWallet) (*models.Wallet, error) {
	const op = "ledger.CreateWallet"

	if _, err := s.users.GetUserByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	balance := decimal.Zero
	if req.Balance != "" {
		b, err := decimal.NewFromString(req.Balance)
		if err != nil || b.IsNegative() {
			return nil, fmt.Errorf("%s: balance %q: %w", op, req.Balance, models.ErrValidation)
		}
		balance = b
	}

	w := models.Wallet{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Name:      req.Name,
		Address:   req.Address,
		Network:   req.Network,
		Balance:   balance,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.wallets.CreateWallet(ctx, w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &w, nil
}

// SeedWallets выставляет пользователю стартовые балансы по всем сетям,
// создавая недостающие кошельки.
func (s *Service) SeedWallets(ctx context.Context, user *models.User) error {
	const op = "ledger.SeedWallets"
	if err := s.wallets.ResetBalances(ctx, s.seedFor(user)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetAllBalances переписывает балансы всех пользователей по таблице стартовых
// значений. Доступно только зарезервированным администраторам.
func (s *Service) ResetAllBalances(ctx context.Context, requestingUserID string) error {
	const op = "ledger.ResetAllBalances"

	requester, err := s.users.GetUserByID(ctx, requestingUserID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !s.admins.Contains(requester.Username) {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	seeds := make([]models.Wallet, 0, len(users)*len(models.Networks))
	for _, u := range users {
		seeds = append(seeds, s.seedFor(u)...)
	}
	if err := s.wallets.ResetBalances(ctx, seeds); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.BalanceResets.Inc()
	s.log.Info("balances reset",
		slog.String("requested_by", requester.ID),
		slog.Int("users", len(users)))
	return nil
}

// SeedTable возвращает таблицу стартовых балансов для пользователя.
func (s *Service) SeedTable(user *models.User) map[string]decimal.Decimal {
	if s.admins.Contains(user.Username) {
		return AdminSeed
	}
	return UserSeed
}

func (s *Service) seedFor(user *models.User) []models.Wallet {
	table := s.SeedTable(user)
	now := s.now()
	out := make([]models.Wallet, 0, len(models.Networks))
	for _, network := range models.Networks {
		out = append(out, models.Wallet{
			ID:         uuid.NewString(),
			UserID:     user.ID,
			Name:       walletNames[network],
			Address:    sandboxAddress(network),
			Network:    network,
			Balance:    table[network],
			LastSyncAt: &now,
			IsActive:   true,
			CreatedAt:  now,
		})
	}
	return out
}

// sandboxAddress выдаёт адрес-заглушку, который нельзя спутать с адресом реальной сети.
func sandboxAddress(network string) string {
	return fmt.Sprintf("sandbox-%s-%s", strings.ToLower(network), strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}
