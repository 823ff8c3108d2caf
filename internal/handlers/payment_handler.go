package handlers

import (
	"net/http"

	"payflow_backend/internal/logger"
	"payflow_backend/internal/services"
	"payflow_backend/internal/services/dto"
	"payflow_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const paystackSignatureHeader = "x-paystack-signature"

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

// RegisterRoutes регистрирует платежные маршруты.
// authGuard вешается только на initiate: webhook приходит от шлюза
// и авторизуется подписью, status - публичное чтение по reference.
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, authGuard gin.HandlerFunc) {
	payments := rg.Group("/payments/paystack")
	{
		payments.POST("/initiate", authGuard, h.Initiate)
		payments.POST("/webhook", h.Webhook)
		payments.GET("/:reference/status", h.Status)
	}
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	email := c.GetString("email")

	var req dto.InitiatePaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, existing, err := h.paymentService.InitiatePayment(c.Request.Context(), userID, email, req.Amount)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if existing {
		// Уже есть незавершенный платеж - возвращаем его же
		c.JSON(http.StatusConflict, response)
		return
	}
	c.JSON(http.StatusCreated, response)
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	// Подпись считается от байт тела как они пришли по сети
	rawBody, err := c.GetRawData()
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	signature := c.GetHeader(paystackSignatureHeader)
	if err := h.paymentService.HandleWebhook(c.Request.Context(), rawBody, signature); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true})
}

func (h *PaymentHandler) Status(c *gin.Context) {
	reference := c.Param("reference")

	response, err := h.paymentService.RefreshStatus(c.Request.Context(), reference)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	logger.CtxInfo(c.Request.Context(), "transaction status refreshed", "reference", reference, "status", response.Status)
	c.JSON(http.StatusOK, response)
}
