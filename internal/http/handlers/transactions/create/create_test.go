package create

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/middlewarectx"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userID string, req models.NewTransaction) (*models.Transaction, error) {
	args := m.Called(ctx, userID, req)
	t, _ := args.Get(0).(*models.Transaction)
	return t, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		body           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "accepted",
			body:   `{"toAddress":"0xabc","amount":"6000","token":"USDT","network":"ETH","gasFeePaid":true}`,
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u1", mock.MatchedBy(func(r models.NewTransaction) bool {
					return r.Amount == "6000" && r.GasFeePaid
				})).Return(&models.Transaction{
					ID: "t1", UserID: "u1", Amount: decimal.NewFromInt(6000), Network: "ETH",
					Status: models.StatusPending, TxHash: "0xhash",
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"status":"pending"`,
		},
		{
			name:   "gas fee not paid",
			body:   `{"toAddress":"0xabc","amount":"6000","token":"USDT","network":"ETH","gasFeePaid":false}`,
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u1", mock.Anything).Return(nil, models.ErrGasFeeRequired)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"gas fee payment is required"}`,
		},
		{
			name:           "unknown network",
			body:           `{"toAddress":"0xabc","amount":"6000","token":"USDT","network":"DOGE","gasFeePaid":true}`,
			userID:         "u1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Network must be one of`,
		},
		{
			name:           "missing to address",
			body:           `{"amount":"6000","token":"USDT","network":"ETH","gasFeePaid":true}`,
			userID:         "u1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field ToAddress is a required field`,
		},
		{
			name:           "no identity",
			body:           `{"toAddress":"0xabc","amount":"6000","token":"USDT","network":"ETH","gasFeePaid":true}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"unauthorized"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(tt.body))
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
