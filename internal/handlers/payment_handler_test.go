package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"payflow_backend/internal/auth"
	"payflow_backend/internal/middleware"
	"payflow_backend/internal/models"
	"payflow_backend/internal/repositories"
	"payflow_backend/internal/services"
	"payflow_backend/internal/services/dto"
	"payflow_backend/internal/validator"
	"payflow_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

// --- Стабы ---

type stubUserRepo struct {
	user *models.User
}

func (r *stubUserRepo) FindByID(id string) (*models.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(email string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (r *stubUserRepo) FindByGoogleID(googleID string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (r *stubUserRepo) Create(user *models.User) error { return nil }
func (r *stubUserRepo) Update(user *models.User) error { return nil }

type stubPaymentService struct {
	initiateCalls int
	initiateResp  *dto.InitiatePaymentResponse
	initiateDup   bool
	initiateErr   error

	webhookErr error

	statusResp *dto.TransactionStatusResponse
	statusErr  error
}

func (s *stubPaymentService) InitiatePayment(ctx context.Context, userID, email string, amount int64) (*dto.InitiatePaymentResponse, bool, error) {
	s.initiateCalls++
	if s.initiateErr != nil {
		return nil, false, s.initiateErr
	}
	return s.initiateResp, s.initiateDup, nil
}

func (s *stubPaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	return s.webhookErr
}

func (s *stubPaymentService) RefreshStatus(ctx context.Context, reference string) (*dto.TransactionStatusResponse, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.statusResp, nil
}

// --- Сборка тестового роутера ---

func newTestRouter(t *testing.T, paymentSvc services.PaymentService, userRepo repositories.UserRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	base := NewBaseHandler(validator.New())
	handler := NewPaymentHandler(base, paymentSvc)

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, middleware.AuthMiddleware(testJWTSecret, userRepo))
	return router
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "u@example.com", testJWTSecret, 60)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(router *gin.Engine, method, path, authHeader string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- Тесты ---

func TestInitiate_Unauthenticated(t *testing.T) {
	svc := &stubPaymentService{}
	router := newTestRouter(t, svc, &stubUserRepo{})

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", header, gin.H{"amount": 5000})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}

	// До сервиса (и тем более до шлюза) запрос не дошел
	assert.Equal(t, 0, svc.initiateCalls)
}

func TestInitiate_UnknownUserInToken(t *testing.T) {
	svc := &stubPaymentService{}
	router := newTestRouter(t, svc, &stubUserRepo{}) // в базе никого нет

	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", bearerFor(t, "ghost"), gin.H{"amount": 5000})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, svc.initiateCalls)
}

func TestInitiate_InvalidAmount(t *testing.T) {
	svc := &stubPaymentService{}
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Email: "u@example.com"}
	router := newTestRouter(t, svc, &stubUserRepo{user: user})
	token := bearerFor(t, "user-1")

	// Ниже минимума
	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", token, gin.H{"amount": 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Не целое число
	w = doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", token, gin.H{"amount": 50.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Не число
	w = doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", token, gin.H{"amount": "5000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, svc.initiateCalls)
}

func TestInitiate_Created(t *testing.T) {
	svc := &stubPaymentService{
		initiateResp: &dto.InitiatePaymentResponse{
			Reference:        "ref_001",
			AuthorizationURL: "https://checkout.paystack.com/abc123",
		},
	}
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Email: "u@example.com"}
	router := newTestRouter(t, svc, &stubUserRepo{user: user})

	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", bearerFor(t, "user-1"), gin.H{"amount": 5000})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ref_001", resp.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
}

func TestInitiate_ExistingPendingConflict(t *testing.T) {
	svc := &stubPaymentService{
		initiateResp: &dto.InitiatePaymentResponse{
			Reference:        "ref_001",
			AuthorizationURL: "https://checkout.paystack.com/abc123",
		},
		initiateDup: true,
	}
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Email: "u@example.com"}
	router := newTestRouter(t, svc, &stubUserRepo{user: user})

	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", bearerFor(t, "user-1"), gin.H{"amount": 5000})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp dto.InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ref_001", resp.Reference)
}

func TestInitiate_GatewayError(t *testing.T) {
	svc := &stubPaymentService{
		initiateErr: apperrors.NewGatewayError(assert.AnError),
	}
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Email: "u@example.com"}
	router := newTestRouter(t, svc, &stubUserRepo{user: user})

	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/initiate", bearerFor(t, "user-1"), gin.H{"amount": 5000})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestWebhook_BadSignature(t *testing.T) {
	svc := &stubPaymentService{webhookErr: apperrors.NewInvalidSignatureError()}
	router := newTestRouter(t, svc, &stubUserRepo{})

	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/webhook", "", gin.H{"event": "charge.success"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_OK(t *testing.T) {
	svc := &stubPaymentService{}
	router := newTestRouter(t, svc, &stubUserRepo{})

	w := doJSON(router, http.MethodPost, "/api/v1/payments/paystack/webhook", "", gin.H{"event": "charge.success"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": true}`, w.Body.String())
}

func TestStatus_OK(t *testing.T) {
	svc := &stubPaymentService{
		statusResp: &dto.TransactionStatusResponse{
			Reference: "ref_001",
			Status:    models.TransactionStatusSuccess,
			Amount:    5000,
		},
	}
	router := newTestRouter(t, svc, &stubUserRepo{})

	w := doJSON(router, http.MethodGet, "/api/v1/payments/paystack/ref_001/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.TransactionStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.TransactionStatusSuccess, resp.Status)
	assert.Equal(t, int64(5000), resp.Amount)
}

func TestStatus_NotFound(t *testing.T) {
	svc := &stubPaymentService{
		statusErr: apperrors.ErrNotFound(repositories.ErrTransactionNotFound, "Transaction not found"),
	}
	router := newTestRouter(t, svc, &stubUserRepo{})

	w := doJSON(router, http.MethodGet, "/api/v1/payments/paystack/ref_ghost/status", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
