package repositories

import (
	"errors"
	"time"

	"payflow_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrPendingTransactionExists - сработал частичный уникальный индекс:
	// у пользователя уже есть незавершенная транзакция
	ErrPendingTransactionExists = errors.New("pending transaction already exists for user")
)

type TransactionRepository interface {
	FindByReference(reference string) (*models.Transaction, error)
	FindPendingByUserID(userID string) (*models.Transaction, error)
	Create(tx *models.Transaction) error
	// UpdateStatusForward применяет новый статус только если текущий
	// не терминальный. Возвращает актуальную запись и признак того,
	// что обновление реально применилось.
	UpdateStatusForward(reference string, status models.TransactionStatus, paidAt *time.Time, raw datatypes.JSON) (*models.Transaction, bool, error)
}

type TransactionRepositoryImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (r *TransactionRepositoryImpl) FindByReference(reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.First(&tx, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepositoryImpl) FindPendingByUserID(userID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.TransactionStatusPending).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepositoryImpl) Create(tx *models.Transaction) error {
	if err := r.db.Create(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPendingTransactionExists
		}
		return err
	}
	return nil
}

func (r *TransactionRepositoryImpl) UpdateStatusForward(reference string, status models.TransactionStatus, paidAt *time.Time, raw datatypes.JSON) (*models.Transaction, bool, error) {
	var result models.Transaction
	applied := false

	err := r.db.Transaction(func(dbtx *gorm.DB) error {
		var tx models.Transaction
		err := dbtx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&tx, "reference = ?", reference).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		if tx.Status.IsTerminal() {
			// Запоздавший или повторный webhook: статус не откатываем
			result = tx
			return nil
		}

		updates := map[string]interface{}{"status": status}
		if paidAt != nil {
			updates["paid_at"] = paidAt
		}
		if raw != nil {
			updates["gateway_response"] = raw
		}
		if err := dbtx.Model(&tx).Updates(updates).Error; err != nil {
			return err
		}

		tx.Status = status
		if paidAt != nil {
			tx.PaidAt = paidAt
		}
		if raw != nil {
			tx.GatewayResponse = raw
		}
		result = tx
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, applied, nil
}
