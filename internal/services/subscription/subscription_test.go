package subscription

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *RepoMock) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

func (m *RepoMock) LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByStatus(ctx context.Context, status string) ([]*models.Subscription, error) {
	args := m.Called(ctx, status)
	subs, _ := args.Get(0).([]*models.Subscription)
	return subs, args.Error(1)
}

func (m *RepoMock) TransitionSubscription(ctx context.Context, id, from, to string, expiresAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, expiresAt)
	return args.Bool(0), args.Error(1)
}

type UsersMock struct {
	mock.Mock
}

func (m *UsersMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type adminSet map[string]bool

func (a adminSet) Contains(username string) bool { return a[strings.ToLower(username)] }

// memCache хранит значения в JSON, как это делает кэш поверх redis.
type memCache map[string][]byte

func (c memCache) Get(_ context.Context, key string, result any) (bool, error) {
	raw, ok := c[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, result)
}

func (c memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c[key] = raw
	return nil
}

func (c memCache) Invalidate(_ context.Context, key string) error {
	delete(c, key)
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var (
	now   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	alice = &models.User{ID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Username: "alice"}
	root  = &models.User{ID: "6fa459ea-ee8a-3ca4-894e-db77e160355e", Username: "Admin", CreatedAt: now}
)

func newService() (*Service, *RepoMock, *UsersMock, memCache) {
	repo := new(RepoMock)
	users := new(UsersMock)
	cache := memCache{}
	svc := New(repo, users, adminSet{"admin": true, "operator": true}, cache, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc, repo, users, cache
}

func TestService_ListPlans(t *testing.T) {
	svc, _, _, _ := newService()

	got := svc.ListPlans()
	require.Len(t, got, 3)
	got[0].Name = "changed"
	assert.Equal(t, "Starter", svc.ListPlans()[0].Name)

	_, ok := svc.Plan("professional")
	assert.True(t, ok)
	_, ok = svc.Plan("free")
	assert.False(t, ok)
}

func TestService_Create_UnverifiedHashIsPending(t *testing.T) {
	svc, repo, users, _ := newService()
	users.On("GetUserByID", mock.Anything, alice.ID).Return(alice, nil)
	repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
		return s.Status == models.SubscriptionPending && s.PaymentTxHash == "0xnot-checked" && s.ExpiresAt == nil
	})).Return(nil).Once()

	sub, err := svc.Create(context.Background(), models.NewSubscription{
		UserID:        alice.ID,
		PlanID:        "starter",
		PaymentTxHash: "0xnot-checked",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, sub.Status)
	assert.Equal(t, now, sub.CreatedAt)
	repo.AssertExpectations(t)
}

func TestService_Create_Errors(t *testing.T) {
	svc, repo, users, _ := newService()
	users.On("GetUserByID", mock.Anything, "ghost").Return(nil, models.ErrNotFound)

	_, err := svc.Create(context.Background(), models.NewSubscription{UserID: alice.ID, PlanID: "free", PaymentTxHash: "h"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Create(context.Background(), models.NewSubscription{UserID: "ghost", PlanID: "starter", PaymentTxHash: "h"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestService_GetUserSubscription_ReservedAdmin(t *testing.T) {
	svc, repo, users, _ := newService()
	users.On("GetUserByID", mock.Anything, root.ID).Return(root, nil)

	sub, err := svc.GetUserSubscription(context.Background(), root.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, "enterprise", sub.PlanID)
	assert.Nil(t, sub.ExpiresAt)
	repo.AssertNotCalled(t, "LatestSubscriptionByUser", mock.Anything, mock.Anything)
}

func TestService_GetUserSubscription_CachedAndExpired(t *testing.T) {
	svc, repo, users, cache := newService()
	expires := now.Add(time.Hour)
	users.On("GetUserByID", mock.Anything, alice.ID).Return(alice, nil).Once()
	repo.On("LatestSubscriptionByUser", mock.Anything, alice.ID).Return(&models.Subscription{
		ID: "s1", UserID: alice.ID, PlanID: "starter", Status: models.SubscriptionActive, ExpiresAt: &expires,
	}, nil).Once()

	sub, err := svc.GetUserSubscription(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Contains(t, cache, cacheKey(alice.ID))

	svc.now = func() time.Time { return expires }
	sub, err = svc.GetUserSubscription(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, sub.Status)

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestService_GetUserSubscription_NotFound(t *testing.T) {
	svc, repo, users, cache := newService()
	users.On("GetUserByID", mock.Anything, alice.ID).Return(alice, nil)
	repo.On("LatestSubscriptionByUser", mock.Anything, alice.ID).Return(nil, models.ErrNotFound)

	_, err := svc.GetUserSubscription(context.Background(), alice.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, cache)
}

func TestService_Review(t *testing.T) {
	pending := func() *models.Subscription {
		return &models.Subscription{ID: "s1", UserID: alice.ID, PlanID: "professional", Status: models.SubscriptionPending}
	}

	t.Run("approve sets expiry and invalidates cache", func(t *testing.T) {
		svc, repo, _, cache := newService()
		cache[cacheKey(alice.ID)] = []byte(`{"status":"pending"}`)
		wantExpiry := now.Add(90 * 24 * time.Hour)
		repo.On("GetSubscription", mock.Anything, "s1").Return(pending(), nil)
		repo.On("TransitionSubscription", mock.Anything, "s1", models.SubscriptionPending, models.SubscriptionActive,
			mock.MatchedBy(func(at *time.Time) bool { return at != nil && at.Equal(wantExpiry) })).Return(true, nil)

		sub, err := svc.Approve(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionActive, sub.Status)
		assert.Equal(t, wantExpiry, *sub.ExpiresAt)
		assert.NotContains(t, cache, cacheKey(alice.ID))
	})

	t.Run("reject", func(t *testing.T) {
		svc, repo, _, _ := newService()
		repo.On("GetSubscription", mock.Anything, "s1").Return(pending(), nil)
		repo.On("TransitionSubscription", mock.Anything, "s1", models.SubscriptionPending, models.SubscriptionRejected,
			(*time.Time)(nil)).Return(true, nil)

		sub, err := svc.Reject(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionRejected, sub.Status)
		assert.Nil(t, sub.ExpiresAt)
	})

	t.Run("already reviewed", func(t *testing.T) {
		svc, repo, _, _ := newService()
		reviewed := pending()
		reviewed.Status = models.SubscriptionRejected
		repo.On("GetSubscription", mock.Anything, "s1").Return(reviewed, nil)
		repo.On("TransitionSubscription", mock.Anything, "s1", models.SubscriptionPending, models.SubscriptionActive,
			mock.Anything).Return(false, nil)

		_, err := svc.Approve(context.Background(), "s1")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("missing", func(t *testing.T) {
		svc, repo, _, _ := newService()
		repo.On("GetSubscription", mock.Anything, "nope").Return(nil, models.ErrNotFound)

		_, err := svc.Reject(context.Background(), "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_ListPending(t *testing.T) {
	svc, repo, _, _ := newService()
	repo.On("ListSubscriptionsByStatus", mock.Anything, models.SubscriptionPending).
		Return([]*models.Subscription{{ID: "s1"}, {ID: "s2"}}, nil)

	got, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
