package remove

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		id             string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{name: "regular user", id: "u1", expectedStatus: http.StatusOK, expectedBody: `{"status":"OK","data":{"id":"u1"}}`},
		{name: "reserved admin", id: "admin-id", err: models.ErrProtectedAccount, expectedStatus: http.StatusUnauthorized, expectedBody: `"account is protected"`},
		{name: "missing user", id: "ghost", err: models.ErrNotFound, expectedStatus: http.StatusNotFound, expectedBody: `"not found"`},
		{name: "storage failure", id: "u2", err: errors.New("db down"), expectedStatus: http.StatusInternalServerError, expectedBody: `"internal server error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("DeleteUser", mock.Anything, tt.id).Return(tt.err)

			req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
