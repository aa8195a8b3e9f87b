package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/user"
	"nfticket-backend/internal/service/identity"
	"nfticket-backend/internal/service/purchase"
)

type AuthHandlers struct {
	session   *identity.Session
	accounts  *identity.PasswordAuth
	purchases *purchase.Service
}

func NewAuthHandlers(session *identity.Session, accounts *identity.PasswordAuth, purchases *purchase.Service) *AuthHandlers {
	return &AuthHandlers{session: session, accounts: accounts, purchases: purchases}
}

func (h *AuthHandlers) RegisterRoutes(public, authed *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/login", h.login)
		auth.POST("/register", h.register)
		auth.POST("/logout", h.logout)
	}
	authed.GET("/me", h.me)
}

type meResponse struct {
	User        user.Identity `json:"user"`
	TicketCount int           `json:"ticketCount"`
}

// @Summary Sign in
// @Description Sign in with email/password or Telegram init-data
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} user.Identity
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandlers) login(c *gin.Context) {
	var creds identity.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid json"))
		return
	}
	id, err := h.session.Authenticate(c.Request.Context(), creds)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, id)
}

// @Summary Register
// @Description Create an email/password account and sign in
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} user.Identity
// @Failure 409 {object} middleware.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandlers) register(c *gin.Context) {
	if h.accounts == nil {
		_ = c.Error(apperrors.New(apperrors.ErrCodeNotFound, "password accounts are disabled"))
		return
	}
	var creds identity.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid json"))
		return
	}
	id, err := h.accounts.Register(c.Request.Context(), creds)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.session.SignIn(c.Request.Context(), *id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, id)
}

func (h *AuthHandlers) logout(c *gin.Context) {
	if h.purchases != nil {
		h.purchases.CloseAll()
	}
	if err := h.session.SignOut(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandlers) me(c *gin.Context) {
	id, _ := h.session.Identity()
	resp := meResponse{User: id}
	if l, err := h.session.Ledger(); err == nil {
		resp.TicketCount = l.Len()
	}
	c.JSON(http.StatusOK, resp)
}
