package create

import (
	"bytes"
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

func (m *MockService) Create(ctx context.Context, req models.NewSubscription) (*models.Subscription, error) {
	args := m.Called(ctx, req)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

const aliceID = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	body := `{"userId":"` + aliceID + `","planId":"starter","paymentTxHash":"0xunverified"}`

	tests := []struct {
		name           string
		body           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "unverified hash is accepted as pending",
			body:   body,
			userID: aliceID,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, models.NewSubscription{UserID: aliceID, PlanID: "starter", PaymentTxHash: "0xunverified"}).
					Return(&models.Subscription{ID: "s1", UserID: aliceID, PlanID: "starter", Status: models.SubscriptionPending}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"status":"pending"`,
		},
		{
			name:           "someone else's subscription",
			body:           body,
			userID:         "another",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"unauthorized"`,
		},
		{
			name:   "unknown plan",
			body:   `{"userId":"` + aliceID + `","planId":"free","paymentTxHash":"0x1"}`,
			userID: aliceID,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"not found"`,
		},
		{
			name:           "missing payment hash",
			body:           `{"userId":"` + aliceID + `","planId":"starter"}`,
			userID:         aliceID,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field PaymentTxHash is a required field`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
