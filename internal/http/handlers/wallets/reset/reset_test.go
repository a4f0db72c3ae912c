package reset

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/middlewarectx"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ResetAllBalances(ctx context.Context, requestingUserID string) error {
	return m.Called(ctx, requestingUserID).Error(0)
}

func TestResetHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "reserved admin",
			userID: "admin-id",
			setupMock: func(m *MockService) {
				m.On("ResetAllBalances", mock.Anything, "admin-id").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"balances reset to seed values"`,
		},
		{
			name:   "regular user",
			userID: "alice-id",
			setupMock: func(m *MockService) {
				m.On("ResetAllBalances", mock.Anything, "alice-id").Return(models.ErrUnauthorized)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "no identity",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"unauthorized"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/wallets/x/reset", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
