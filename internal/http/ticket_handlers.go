package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/ticket"
	"nfticket-backend/internal/service/identity"
	"nfticket-backend/internal/service/notifications"
)

type TicketHandlers struct {
	session  *identity.Session
	notifier notifications.Notifier
}

func NewTicketHandlers(s *identity.Session, n notifications.Notifier) *TicketHandlers {
	return &TicketHandlers{session: s, notifier: n}
}

func (h *TicketHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/tickets", h.list)
	r.POST("/tickets/:tokenId/redeem", h.redeem)
}

// @Summary List owned tickets
// @Tags tickets
// @Produce json
// @Param status query string false "active or redeemed"
// @Success 200 {array} ticket.Record
// @Router /tickets [get]
func (h *TicketHandlers) list(c *gin.Context) {
	l, err := h.session.Ledger()
	if err != nil {
		_ = c.Error(err)
		return
	}
	switch c.Query("status") {
	case "":
		c.JSON(http.StatusOK, l.All())
	case "active":
		c.JSON(http.StatusOK, l.ListActive())
	case "redeemed":
		c.JSON(http.StatusOK, l.ListRedeemed())
	default:
		_ = c.Error(apperrors.NewValidationError("status", "must be active or redeemed"))
	}
}

func (h *TicketHandlers) redeem(c *gin.Context) {
	l, err := h.session.Ledger()
	if err != nil {
		_ = c.Error(err)
		return
	}
	tokenID := c.Param("tokenId")
	before, ok := l.Get(tokenID)
	if err := l.SetStatus(c.Request.Context(), tokenID, ticket.StatusRedeemed); err != nil {
		_ = c.Error(err)
		return
	}
	if ok && !before.IsRedeemed() && h.notifier != nil {
		h.notifier.Notify(c.Request.Context(), notifications.TicketRedeemed(tokenID))
	}
	r, _ := l.Get(tokenID)
	c.JSON(http.StatusOK, r)
}
