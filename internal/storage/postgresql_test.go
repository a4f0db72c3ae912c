package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ledgersandbox/ledger-sandbox/internal/migrations"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, migrations.Run(storage.DB, "../../migrations"))
	return storage
}

func newUser(username string, email *string) models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newWallet(userID, network, balance string) models.Wallet {
	return models.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      network + " Wallet",
		Address:   "addr-" + network,
		Network:   network,
		Balance:   decimal.RequireFromString(balance),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func newTransaction(userID, network, amount string) models.Transaction {
	now := time.Now().UTC()
	return models.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		ToAddress:    "0x00000000000000000000000000000000000000bb",
		Amount:       decimal.RequireFromString(amount),
		Token:        "USDT",
		Network:      network,
		GasFeePaid:   true,
		FlashAddress: "0x00000000000000000000000000000000000000aa",
		Status:       models.StatusPending,
		TxHash:       "0xabc",
		CompleteAt:   now.Add(5 * time.Second),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStorage_Users(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	email := "alice@example.com"
	alice := newUser("Alice", &email)
	require.NoError(t, s.CreateUser(ctx, alice))

	got, err := s.GetUserByUsername(ctx, "aLiCe")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	require.NotNil(t, got.Email)
	assert.Equal(t, email, *got.Email)

	got, err = s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	err = s.CreateUser(ctx, newUser("ALICE", nil))
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)
	assert.ErrorIs(t, err, models.ErrDuplicateEntity)

	err = s.CreateUser(ctx, newUser("bob", &email))
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	bob := newUser("bob", nil)
	require.NoError(t, s.CreateUser(ctx, bob))
	bob.Username = "alice"
	assert.ErrorIs(t, s.UpdateUser(ctx, bob), models.ErrDuplicateUsername)

	require.NoError(t, s.UpdatePassword(ctx, bob.ID, "new-hash"))
	got, err = s.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	require.NoError(t, s.DeleteUser(ctx, bob.ID))
	_, err = s.GetUserByID(ctx, bob.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, bob.ID), models.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)
}

func TestStorage_CreateTransactionWithDebit(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	user := newUser("carol", nil)
	require.NoError(t, s.CreateUser(ctx, user))
	wallet := newWallet(user.ID, models.NetworkETH, "100.5")
	require.NoError(t, s.CreateWallet(ctx, wallet))

	tests := []struct {
		name        string
		network     string
		amount      string
		wantBalance string
		wantWallet  bool
	}{
		{name: "partial debit", network: models.NetworkETH, amount: "40.25", wantBalance: "60.25", wantWallet: true},
		{name: "overdraft clamps at zero", network: models.NetworkETH, amount: "1000", wantBalance: "0", wantWallet: true},
		{name: "no wallet for network", network: models.NetworkBTC, amount: "1", wantBalance: "0", wantWallet: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := s.CreateTransactionWithDebit(ctx, newTransaction(user.ID, tt.network, tt.amount))
			require.NoError(t, err)
			if tt.wantWallet {
				require.NotNil(t, saved.WalletID)
				assert.Equal(t, wallet.ID, *saved.WalletID)
			} else {
				assert.Nil(t, saved.WalletID)
			}

			wallets, err := s.ListWalletsByUser(ctx, user.ID)
			require.NoError(t, err)
			require.Len(t, wallets, 1)
			assert.True(t, decimal.RequireFromString(tt.wantBalance).Equal(wallets[0].Balance),
				"balance %s", wallets[0].Balance)

			stored, err := s.GetTransaction(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, stored.Status)
			assert.True(t, saved.Amount.Equal(stored.Amount))
		})
	}
}

func TestStorage_ConcurrentDebitsDoNotLoseUpdates(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	user := newUser("dave", nil)
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateWallet(ctx, newWallet(user.ID, models.NetworkTRX, "1000")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateTransactionWithDebit(ctx, newTransaction(user.ID, models.NetworkTRX, "10"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	wallets, err := s.ListWalletsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.True(t, decimal.NewFromInt(800).Equal(wallets[0].Balance), "balance %s", wallets[0].Balance)
}

func TestStorage_CompleteDueAndUpdate(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	user := newUser("erin", nil)
	require.NoError(t, s.CreateUser(ctx, user))

	due := newTransaction(user.ID, models.NetworkBSC, "1")
	due.CompleteAt = time.Now().Add(-time.Second)
	_, err := s.CreateTransactionWithDebit(ctx, due)
	require.NoError(t, err)

	later := newTransaction(user.ID, models.NetworkBSC, "1")
	later.CompleteAt = time.Now().Add(time.Hour)
	_, err = s.CreateTransactionWithDebit(ctx, later)
	require.NoError(t, err)

	completed, err := s.CompleteDue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, due.ID, completed[0].ID)
	assert.Equal(t, models.StatusCompleted, completed[0].Status)

	completed, err = s.CompleteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, completed)

	stored, err := s.GetTransaction(ctx, later.ID)
	require.NoError(t, err)
	stored.Confirmations = 3
	ok, err := s.UpdateTransaction(ctx, *stored, models.StatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateTransaction(ctx, *stored, models.StatusCompleted)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.ListTransactionsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.GetTransaction(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_ResetBalances(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	user := newUser("frank", nil)
	require.NoError(t, s.CreateUser(ctx, user))
	existing := newWallet(user.ID, models.NetworkBTC, "0.5")
	require.NoError(t, s.CreateWallet(ctx, existing))

	require.NoError(t, s.ResetBalances(ctx, []models.Wallet{
		newWallet(user.ID, models.NetworkBTC, "2"),
		newWallet(user.ID, models.NetworkETH, "30"),
	}))

	wallets, err := s.ListWalletsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 2)

	byNetwork := make(map[string]*models.Wallet)
	for _, w := range wallets {
		byNetwork[w.Network] = w
	}
	assert.Equal(t, existing.ID, byNetwork[models.NetworkBTC].ID)
	assert.True(t, decimal.NewFromInt(2).Equal(byNetwork[models.NetworkBTC].Balance))
	assert.True(t, decimal.NewFromInt(30).Equal(byNetwork[models.NetworkETH].Balance))
}

func TestStorage_SubscriptionsAndSettings(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	user := newUser("grace", nil)
	require.NoError(t, s.CreateUser(ctx, user))

	sub := models.Subscription{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		PlanID:        "pro",
		Status:        models.SubscriptionPending,
		PaymentTxHash: "0xfeed",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.CreateSubscription(ctx, sub))

	pending, err := s.ListSubscriptionsByStatus(ctx, models.SubscriptionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	expires := time.Now().Add(30 * 24 * time.Hour).UTC()
	ok, err := s.TransitionSubscription(ctx, sub.ID, models.SubscriptionPending, models.SubscriptionActive, &expires)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TransitionSubscription(ctx, sub.ID, models.SubscriptionPending, models.SubscriptionRejected, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	latest, err := s.LatestSubscriptionByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, latest.Status)
	require.NotNil(t, latest.ExpiresAt)

	_, err = s.LatestSubscriptionByUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, ok, err = s.GetSetting(ctx, "gas_receiver")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutSetting(ctx, "gas_receiver", "first"))
	require.NoError(t, s.PutSetting(ctx, "gas_receiver", "second"))
	value, ok, err := s.GetSetting(ctx, "gas_receiver")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}
