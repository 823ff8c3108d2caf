package dto

import (
	"time"

	"payflow_backend/internal/models"
)

// InitiatePaymentRequest - сумма в минимальных единицах валюты (kobo).
// Минимум 100: порог провайдера на одну единицу основной валюты.
type InitiatePaymentRequest struct {
	Amount int64 `json:"amount" validate:"required,gte=100"`
}

type InitiatePaymentResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

type TransactionStatusResponse struct {
	Reference string                   `json:"reference"`
	Status    models.TransactionStatus `json:"status"`
	Amount    int64                    `json:"amount"`
	PaidAt    *time.Time               `json:"paid_at"`
}
