// Package gasreceiver хранит адрес получателя комиссии, который подставляется в
// новые транзакции, и тарифы комиссии по скорости.
package gasreceiver

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// SettingKey — ключ, под которым адрес сохраняется в хранилище настроек.
const SettingKey = "gas_receiver_address"

var addressPattern = regexp.MustCompile(`^(0x[0-9a-fA-F]{40}|T[A-Za-z1-9]{33})$`)

// ValidAddress сообщает, похож ли адрес на адрес Ethereum или Tron.
func ValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// SettingsRepository хранит настройки между перезапусками.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Registry — единственный владелец адреса получателя комиссии.
type Registry struct {
	mu      sync.RWMutex
	address string
	repo    SettingsRepository
	fees    map[string]decimal.Decimal
	log     *slog.Logger
}

// New создаёт Registry с адресом по умолчанию и тарифами комиссии.
func New(repo SettingsRepository, defaultAddress string, fees map[string]string, log *slog.Logger) (*Registry, error) {
	const op = "gasreceiver.New"
	if !ValidAddress(defaultAddress) {
		return nil, fmt.Errorf("%s: default address %q: %w", op, defaultAddress, models.ErrInvalidFormat)
	}
	parsed := make(map[string]decimal.Decimal, len(fees))
	for speed, raw := range fees {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: fee %s=%q: %w", op, speed, raw, err)
		}
		parsed[speed] = fee
	}
	return &Registry{
		address: defaultAddress,
		repo:    repo,
		fees:    parsed,
		log:     log,
	}, nil
}

// Load подхватывает адрес, сохранённый предыдущим вызовом Set.
func (r *Registry) Load(ctx context.Context) error {
	const op = "gasreceiver.Load"
	value, ok, err := r.repo.GetSetting(ctx, SettingKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil
	}
	if !ValidAddress(value) {
		r.log.Warn("ignoring stored gas receiver address with invalid format", slog.String("address", value))
		return nil
	}
	r.mu.Lock()
	r.address = value
	r.mu.Unlock()
	return nil
}

// Get возвращает текущий адрес.
func (r *Registry) Get() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.address
}

// Set проверяет формат, сохраняет адрес и сразу делает его текущим для всех
// последующих транзакций.
func (r *Registry) Set(ctx context.Context, address string) error {
	const op = "gasreceiver.Set"
	if !ValidAddress(address) {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidFormat)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.repo.PutSetting(ctx, SettingKey, address); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	previous := r.address
	r.address = address
	r.log.Info("gas receiver address changed", slog.String("from", previous), slog.String("to", address))
	return nil
}

// Fees возвращает копию тарифов комиссии.
func (r *Registry) Fees() map[string]decimal.Decimal {
	return maps.Clone(r.fees)
}
