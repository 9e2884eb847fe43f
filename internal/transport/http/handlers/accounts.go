package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Crekold/vet-backend-sub000/internal/transport/http/middleware"
	"github.com/Crekold/vet-backend-sub000/internal/usecase"
)

// AccountHandler exposes administrative account operations.
type AccountHandler struct {
	credentials *usecase.CredentialService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(credentials *usecase.CredentialService) *AccountHandler {
	return &AccountHandler{credentials: credentials}
}

// RegisterRoutes binds account routes behind bearer authentication.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	auth := middleware.RequireAuth(h.credentials)
	r.GET("/:id", auth, h.get)
	r.POST("/:id/unlock", auth, h.unlock)
	r.POST("/:id/enable", auth, h.enable)
	r.POST("/:id/disable", auth, h.disable)
}

var accountErrors = NewErrorMapping(http.StatusInternalServerError, "account operation failed").
	On(usecase.ErrAccountNotFound, http.StatusNotFound, "account not found")

func (h *AccountHandler) get(c *gin.Context) {
	account, err := h.credentials.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		accountErrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, newAccountSummary(*account))
}

func (h *AccountHandler) unlock(c *gin.Context) {
	if err := h.credentials.Unlock(c.Request.Context(), c.Param("id")); err != nil {
		accountErrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account unlocked"})
}

func (h *AccountHandler) enable(c *gin.Context) {
	if err := h.credentials.SetAccountActive(c.Request.Context(), c.Param("id"), true); err != nil {
		accountErrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account enabled"})
}

func (h *AccountHandler) disable(c *gin.Context) {
	if err := h.credentials.SetAccountActive(c.Request.Context(), c.Param("id"), false); err != nil {
		accountErrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account disabled"})
}
