package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary describes the account view returned by the API. Credential
// material never appears here.
type AccountSummary struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:           account.ID,
		Username:     account.Username,
		Email:        account.Email,
		IsActive:     account.IsActive,
		RegisteredAt: account.RegisteredAt,
		LastLogin:    account.LastLogin,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the advisory password flag.
type LoginResponse struct {
	AccessToken            string         `json:"access_token"`
	TokenType              string         `json:"token_type"`
	ExpiresIn              int            `json:"expires_in"`
	PasswordChangeRequired bool           `json:"password_change_required"`
	Account                AccountSummary `json:"account"`
}

// RegisterRequest defines the payload for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse confirms account creation.
type RegisterResponse struct {
	Account AccountSummary `json:"account"`
}

// PasswordChangeRequest defines the payload for an authenticated password change.
type PasswordChangeRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// PasswordResetRequest defines the payload for requesting a reset token.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// PasswordResetConfirmRequest defines the payload for redeeming a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// HealthResponse reports service status.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
