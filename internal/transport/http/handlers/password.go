package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
	"github.com/Crekold/vet-backend-sub000/internal/transport/http/middleware"
	"github.com/Crekold/vet-backend-sub000/internal/usecase"
)

// PasswordHandler exposes password change and reset endpoints.
type PasswordHandler struct {
	credentials *usecase.CredentialService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(credentials *usecase.CredentialService) *PasswordHandler {
	return &PasswordHandler{credentials: credentials}
}

var changeErrors = NewErrorMapping(http.StatusInternalServerError, "failed to change password").
	On(usecase.ErrAccountNotFound, http.StatusNotFound, "account not found").
	On(usecase.ErrAccountInactive, http.StatusForbidden, "account inactive")

// Both token failures read the same to the caller; only logs and metrics
// distinguish an expired token from an unknown one.
var resetConfirmErrors = NewErrorMapping(http.StatusInternalServerError, "failed to reset password").
	On(usecase.ErrInvalidResetToken, http.StatusUnauthorized, "invalid or expired reset token").
	On(usecase.ErrExpiredResetToken, http.StatusUnauthorized, "invalid or expired reset token")

// RegisterRoutes binds password routes. The change endpoint requires a bearer
// token; the reset pair is public but rate limited.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, resetMiddlewares ...gin.HandlerFunc) {
	r.POST("/change", middleware.RequireAuth(h.credentials), h.change)

	requestChain := append([]gin.HandlerFunc{}, resetMiddlewares...)
	r.POST("/reset/request", append(requestChain, h.resetRequest)...)
	r.POST("/reset/confirm", h.resetConfirm)
}

func (h *PasswordHandler) change(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "new_password is required"))
		return
	}

	err := h.credentials.ChangePassword(c.Request.Context(), claims.AccountID, req.NewPassword)
	if err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
			return
		}
		changeErrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// resetRequest always responds 202: whether the address maps to an account is
// never observable through this endpoint.
func (h *PasswordHandler) resetRequest(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.credentials.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process reset request"))
		return
	}

	c.JSON(http.StatusAccepted, MessageResponse{
		Message: "if the address is registered, a reset link has been sent",
	})
}

func (h *PasswordHandler) resetConfirm(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token and new_password are required"))
		return
	}

	err := h.credentials.CompletePasswordReset(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
			return
		}
		resetConfirmErrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset"})
}
