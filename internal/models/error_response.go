package models

import "net/http"

// ErrorResponse описывает ошибку с кодом и сообщением.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// NewValidationError создает ошибку валидации (выдаётся до любой записи в базу).
func NewValidationError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, message)
}

// NewConflictError создает ошибку конфликта (дубликат номера версии,
// уже открытая сессия). Никогда не перезаписывается молча.
func NewConflictError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusConflict, message)
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// IsConflict сообщает, является ли ошибка конфликтом.
func IsConflict(err error) bool {
	if errorResponse, ok := err.(*ErrorResponse); ok {
		return errorResponse.StatusCode == http.StatusConflict
	}
	return false
}
