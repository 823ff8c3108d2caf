package handlers

// AppHandlers - контейнер готовых хэндлеров для регистрации маршрутов
type AppHandlers struct {
	AuthHandler    *AuthHandler
	PaymentHandler *PaymentHandler
}
