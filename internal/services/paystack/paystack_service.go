package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

var (
	ErrGateway = errors.New("paystack request failed")
	// ErrReferenceNotFound - шлюз не знает такой reference (404 на verify)
	ErrReferenceNotFound = errors.New("transaction reference not found on gateway")
)

// InitializeResult - результат инициализации транзакции.
// Reference выдается шлюзом и неизменяем.
type InitializeResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

// VerifyResult - текущее состояние транзакции по данным шлюза
type VerifyResult struct {
	Status string          `json:"status"`
	Amount int64           `json:"amount"`
	PaidAt *time.Time      `json:"paid_at"`
	Raw    json.RawMessage `json:"-"`
}

// WebhookEvent - payload webhook-уведомления Paystack
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	Reference string     `json:"reference"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	PaidAt    *time.Time `json:"paid_at"`
}

// PaystackService - клиент Paystack API + проверка подписи webhook'ов
type PaystackService interface {
	InitializeTransaction(ctx context.Context, amount int64, email string) (*InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

type PaystackServiceImpl struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	callbackURL   string
	httpClient    *http.Client
}

func NewPaystackService(secretKey, webhookSecret, baseURL, callbackURL string) *PaystackServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &PaystackServiceImpl{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		callbackURL:   callbackURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ответ Paystack всегда завернут в {status, message, data}
type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction создает транзакцию на стороне шлюза.
// amount - в минимальных единицах валюты (kobo).
func (s *PaystackServiceImpl) InitializeTransaction(ctx context.Context, amount int64, email string) (*InitializeResult, error) {
	payload := map[string]interface{}{
		"amount": amount,
		"email":  email,
	}
	if s.callbackURL != "" {
		payload["callback_url"] = s.callbackURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	env, _, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: bad initialize response: %v", ErrGateway, err)
	}
	if result.Reference == "" || result.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: initialize response missing reference or authorization_url", ErrGateway)
	}
	return &result, nil
}

// VerifyTransaction запрашивает у шлюза текущий статус транзакции
func (s *PaystackServiceImpl) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	env, statusCode, err := s.do(req)
	if err != nil {
		if statusCode == http.StatusNotFound {
			return nil, ErrReferenceNotFound
		}
		return nil, err
	}

	var result VerifyResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: bad verify response: %v", ErrGateway, err)
	}
	result.Raw = env.Data
	return &result, nil
}

// VerifyWebhookSignature сверяет HMAC-SHA512 от сырых байт тела запроса
// с заголовком x-paystack-signature. Подпись считается строго по байтам
// как они пришли по сети: пересериализация распарсенного тела может
// дать другой порядок ключей и сломать сверку.
func (s *PaystackServiceImpl) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *PaystackServiceImpl) do(req *http.Request) (*apiEnvelope, int, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: non-json response (%d)", ErrGateway, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Status {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s (%d)", ErrGateway, env.Message, resp.StatusCode)
	}
	return &env, resp.StatusCode, nil
}
