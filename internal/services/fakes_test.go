package services

import (
	"context"
	"time"

	"payflow_backend/internal/models"
	"payflow_backend/internal/repositories"
	"payflow_backend/internal/services/google"
	"payflow_backend/internal/services/paystack"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const testWebhookSecret = "whsec_test"

// --- In-memory репозитории для тестов сервисов ---

type fakeUserRepo struct {
	users map[string]*models.User // by ID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByGoogleID(googleID string) (*models.User, error) {
	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Create(user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeTransactionRepo struct {
	byRef map[string]*models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byRef: make(map[string]*models.Transaction)}
}

func (r *fakeTransactionRepo) FindByReference(reference string) (*models.Transaction, error) {
	if tx, ok := r.byRef[reference]; ok {
		return tx, nil
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) FindPendingByUserID(userID string) (*models.Transaction, error) {
	for _, tx := range r.byRef {
		if tx.UserID == userID && tx.Status == models.TransactionStatusPending {
			return tx, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) Create(tx *models.Transaction) error {
	// та же семантика, что у частичного уникального индекса
	for _, existing := range r.byRef {
		if existing.UserID == tx.UserID && existing.Status == models.TransactionStatusPending {
			return repositories.ErrPendingTransactionExists
		}
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	tx.CreatedAt = time.Now()
	r.byRef[tx.Reference] = tx
	return nil
}

func (r *fakeTransactionRepo) UpdateStatusForward(reference string, status models.TransactionStatus, paidAt *time.Time, raw datatypes.JSON) (*models.Transaction, bool, error) {
	tx, ok := r.byRef[reference]
	if !ok {
		return nil, false, repositories.ErrTransactionNotFound
	}
	if tx.Status.IsTerminal() {
		return tx, false, nil
	}
	tx.Status = status
	if paidAt != nil {
		tx.PaidAt = paidAt
	}
	if raw != nil {
		tx.GatewayResponse = raw
	}
	return tx, true, nil
}

// --- Фейки внешних провайдеров ---

type fakeOAuth struct {
	authURL string
	profile *google.Profile
	err     error
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return f.authURL
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, code string) (*google.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeGateway struct {
	initResult   *paystack.InitializeResult
	initErr      error
	initCalls    int
	verifyResult *paystack.VerifyResult
	verifyErr    error

	// подпись проверяем настоящим HMAC-кодом клиента
	sigVerifier paystack.PaystackService
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sigVerifier: paystack.NewPaystackService("", testWebhookSecret, "http://paystack.invalid", ""),
	}
}

func (f *fakeGateway) InitializeTransaction(ctx context.Context, amount int64, email string) (*paystack.InitializeResult, error) {
	f.initCalls++
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.initResult, nil
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func (f *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return f.sigVerifier.VerifyWebhookSignature(body, signature)
}
