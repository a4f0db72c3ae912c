// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко-читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "min", "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must have %s length %s", err.Field(), err.ActualTag(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// errorStatuses сопоставляет ошибкам предметной области HTTP-статус и сообщение.
// Конкретные ошибки стоят раньше своих категорий.
var errorStatuses = []struct {
	err    error
	status int
	msg    string
}{
	{models.ErrGasFeeRequired, http.StatusBadRequest, "gas fee payment is required"},
	{models.ErrAmountTooLow, http.StatusBadRequest, "amount is below the minimum"},
	{models.ErrInvalidFormat, http.StatusBadRequest, "invalid address format"},
	{models.ErrInvalidTransition, http.StatusBadRequest, "status transition is not allowed"},
	{models.ErrValidation, http.StatusBadRequest, "invalid request"},
	{models.ErrDuplicateUsername, http.StatusBadRequest, "username already exists"},
	{models.ErrDuplicateEmail, http.StatusBadRequest, "email already exists"},
	{models.ErrDuplicateEntity, http.StatusBadRequest, "entity already exists"},
	{models.ErrNotFound, http.StatusNotFound, "not found"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{models.ErrProtectedAccount, http.StatusUnauthorized, "account is protected"},
	{models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
}

// StatusFor возвращает HTTP-статус и сообщение для ошибки сервиса.
// Неизвестные ошибки отображаются в 500 без подробностей.
func StatusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// ServiceError пишет ответ для ошибки сервиса и возвращает выбранный статус.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) int {
	status, msg := StatusFor(err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
	return status
}
