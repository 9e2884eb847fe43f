package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
	"github.com/Crekold/vet-backend-sub000/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	credentials *usecase.CredentialService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(credentials *usecase.CredentialService) *AuthHandler {
	return &AuthHandler{credentials: credentials}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	r.POST("/register", h.register)

	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	account, err := h.credentials.RegisterAccount(c.Request.Context(), usecase.RegisterAccountInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
			return
		}
		if errors.Is(err, usecase.ErrAccountExists) {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "username or email already registered"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register account"))
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{Account: newAccountSummary(*account)})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.credentials.Authenticate(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:            result.Token,
		TokenType:              "Bearer",
		ExpiresIn:              h.expiresIn(result.Token),
		PasswordChangeRequired: result.PasswordChangeRequired,
		Account:                newAccountSummary(result.Account),
	})
}

// respondLoginError collapses unknown-account and inactive-account outcomes
// into the same 401 a wrong password produces; only an active lock is
// distinguishable to callers.
func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrAccountLocked):
		c.JSON(http.StatusLocked, NewErrorResponse(c, "account temporarily locked"))
	case errors.Is(err, usecase.ErrInvalidCredentials), errors.Is(err, usecase.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "authentication failed"))
	}
}

func (h *AuthHandler) expiresIn(token string) int {
	claims, err := h.credentials.ParseAccessToken(token)
	if err != nil || claims == nil || claims.ExpiresAt == nil {
		return 0
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return 0
	}

	return int(remaining.Seconds())
}
