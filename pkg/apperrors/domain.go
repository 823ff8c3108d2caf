package apperrors

import "net/http"

/*
Фабрики для доменных ошибок платежного цикла и аутентификации.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error, message string) *AppError {
	return Wrap(err, CodeNotFound, "resource", message, http.StatusNotFound)
}

// NewGatewayError - сбой платежного провайдера при инициализации транзакции (402)
func NewGatewayError(err error) *AppError {
	return Wrap(err, CodeGatewayError, "paystack", "Payment gateway request failed", http.StatusPaymentRequired)
}

// NewExternalServiceError - сбой внешнего сервиса вне пути инициализации (500)
func NewExternalServiceError(err error, domain string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, "External service request failed", http.StatusInternalServerError)
}

// NewInvalidSignatureError - webhook пришел с неверной подписью (400)
func NewInvalidSignatureError() *AppError {
	return New(CodeInvalidSignature, "paystack", "Invalid webhook signature", http.StatusBadRequest)
}

// NewDatabaseError - ошибка хранилища (500)
func NewDatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "storage", "Database operation failed", http.StatusInternalServerError)
}
