package services

import (
	"context"
	"encoding/json"

	"payflow_backend/internal/logger"
	"payflow_backend/internal/models"
	"payflow_backend/internal/repositories"
	"payflow_backend/internal/services/dto"
	"payflow_backend/internal/services/paystack"
	"payflow_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// MinAmount - минимальная сумма платежа в минимальных единицах валюты
const MinAmount int64 = 100

type PaymentService interface {
	// InitiatePayment возвращает existing=true, если у пользователя
	// уже есть pending-транзакция: тогда отдается она, без дубликата
	InitiatePayment(ctx context.Context, userID, email string, amount int64) (*dto.InitiatePaymentResponse, bool, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
	RefreshStatus(ctx context.Context, reference string) (*dto.TransactionStatusResponse, error)
}

type PaymentServiceImpl struct {
	txRepo  repositories.TransactionRepository
	gateway paystack.PaystackService
}

func NewPaymentService(
	txRepo repositories.TransactionRepository,
	gateway paystack.PaystackService,
) PaymentService {
	return &PaymentServiceImpl{
		txRepo:  txRepo,
		gateway: gateway,
	}
}

func (s *PaymentServiceImpl) InitiatePayment(ctx context.Context, userID, email string, amount int64) (*dto.InitiatePaymentResponse, bool, error) {
	if amount < MinAmount {
		return nil, false, apperrors.NewBadRequestError("amount must be at least 100")
	}

	// Идемпотентный short-circuit: одна pending-транзакция на пользователя
	pending, err := s.txRepo.FindPendingByUserID(userID)
	if err == nil {
		return &dto.InitiatePaymentResponse{
			Reference:        pending.Reference,
			AuthorizationURL: pending.AuthorizationURL,
		}, true, nil
	}
	if !apperrors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, false, apperrors.NewDatabaseError(err)
	}

	result, err := s.gateway.InitializeTransaction(ctx, amount, email)
	if err != nil {
		return nil, false, apperrors.NewGatewayError(err)
	}

	tx := &models.Transaction{
		Reference:        result.Reference,
		Amount:           amount,
		Status:           models.TransactionStatusPending,
		AuthorizationURL: result.AuthorizationURL,
		UserID:           userID,
	}
	if err := s.txRepo.Create(tx); err != nil {
		if apperrors.Is(err, repositories.ErrPendingTransactionExists) {
			// Проиграли гонку параллельному Initiate: частичный уникальный
			// индекс не дал второй pending-записи. Отдаем выигравшую.
			pending, ferr := s.txRepo.FindPendingByUserID(userID)
			if ferr != nil {
				return nil, false, apperrors.NewDatabaseError(ferr)
			}
			logger.CtxWarn(ctx, "concurrent initiate lost race, returning existing pending transaction",
				"user_id", userID, "reference", pending.Reference)
			return &dto.InitiatePaymentResponse{
				Reference:        pending.Reference,
				AuthorizationURL: pending.AuthorizationURL,
			}, true, nil
		}
		return nil, false, apperrors.NewDatabaseError(err)
	}

	logger.CtxInfo(ctx, "payment initiated", "reference", tx.Reference, "amount", amount)
	return &dto.InitiatePaymentResponse{
		Reference:        tx.Reference,
		AuthorizationURL: tx.AuthorizationURL,
	}, false, nil
}

// HandleWebhook проверяет подпись по сырым байтам тела и применяет
// статус из payload. Переходы только вперед: терминальная запись
// не перезаписывается, но webhook подтверждается (200).
func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		return apperrors.NewInvalidSignatureError()
	}

	var event paystack.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return apperrors.NewBadRequestError("Invalid webhook payload")
	}
	if event.Data.Reference == "" {
		return apperrors.NewBadRequestError("Webhook payload missing reference")
	}

	status := models.ParseTransactionStatus(event.Data.Status)
	tx, applied, err := s.txRepo.UpdateStatusForward(event.Data.Reference, status, event.Data.PaidAt, datatypes.JSON(rawBody))
	if err != nil {
		if apperrors.Is(err, repositories.ErrTransactionNotFound) {
			return apperrors.ErrNotFound(err, "Transaction not found")
		}
		return apperrors.NewDatabaseError(err)
	}

	if !applied {
		logger.CtxWarn(ctx, "webhook ignored: transaction already in terminal state",
			"reference", tx.Reference, "current_status", tx.Status, "event", event.Event)
		return nil
	}

	logger.CtxInfo(ctx, "webhook applied", "reference", tx.Reference, "status", tx.Status, "event", event.Event)
	return nil
}

// RefreshStatus сверяет локальную запись с состоянием на шлюзе
func (s *PaymentServiceImpl) RefreshStatus(ctx context.Context, reference string) (*dto.TransactionStatusResponse, error) {
	tx, err := s.txRepo.FindByReference(reference)
	if err != nil {
		if apperrors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err, "Transaction not found")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	result, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, apperrors.NewExternalServiceError(err, "paystack")
	}

	status := models.ParseTransactionStatus(result.Status)
	tx, _, err = s.txRepo.UpdateStatusForward(reference, status, result.PaidAt, datatypes.JSON(result.Raw))
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	return &dto.TransactionStatusResponse{
		Reference: tx.Reference,
		Status:    tx.Status,
		Amount:    tx.Amount,
		PaidAt:    tx.PaidAt,
	}, nil
}
