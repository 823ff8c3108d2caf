package models

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusAbandoned TransactionStatus = "abandoned"
)

// IsTerminal - терминальные статусы назад не переводятся
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusAbandoned:
		return true
	}
	return false
}

// ParseTransactionStatus приводит статус из ответа/webhook провайдера
// к нашему enum. Неизвестные значения считаем pending: Paystack шлет
// "ongoing"/"queued" для незавершенных платежей.
func ParseTransactionStatus(s string) TransactionStatus {
	switch TransactionStatus(s) {
	case TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusAbandoned:
		return TransactionStatus(s)
	}
	return TransactionStatusPending
}
