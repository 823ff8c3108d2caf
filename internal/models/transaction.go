package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction - платежная транзакция Paystack.
// Amount хранится в минимальных единицах валюты (kobo).
// Частичный уникальный индекс на UserID гарантирует не больше
// одной pending-транзакции на пользователя.
type Transaction struct {
	BaseModel
	Reference        string            `gorm:"uniqueIndex;not null" json:"reference"` // выдается шлюзом, неизменяем
	Amount           int64             `gorm:"not null" json:"amount"`
	Status           TransactionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaidAt           *time.Time        `json:"paid_at"`
	AuthorizationURL string            `json:"authorization_url"`
	UserID           string            `gorm:"type:uuid;not null;index;index:idx_transactions_pending_user,unique,where:status = 'pending'" json:"user_id"`
	GatewayResponse  datatypes.JSON    `json:"-"` // сырой payload последнего verify/webhook
}
