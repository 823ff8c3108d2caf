package handlers

import (
	"net/http"

	"payflow_backend/internal/services"
	"payflow_backend/internal/services/dto"
	"payflow_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes регистрирует маршруты аутентификации
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.GET("/google", h.GoogleAuth)
		auth.GET("/google/callback", h.GoogleCallback)
	}
}

// GoogleAuth отдает ссылку для клиентского редиректа на Google
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	c.JSON(http.StatusOK, dto.GoogleAuthURLResponse{
		GoogleAuthURL: h.authService.GoogleAuthURL(),
	})
}

// GoogleCallback обменивает authorization code на профиль и сессию
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing required query parameter: code"))
		return
	}

	response, err := h.authService.HandleGoogleCallback(c.Request.Context(), code)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
