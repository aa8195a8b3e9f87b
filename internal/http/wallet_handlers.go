package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/service/wallet"
)

type WalletHandlers struct {
	wallet *wallet.Session
}

func NewWalletHandlers(w *wallet.Session) *WalletHandlers {
	return &WalletHandlers{wallet: w}
}

func (h *WalletHandlers) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/wallet")
	{
		g.GET("", h.state)
		g.POST("/connect", h.connect)
		g.POST("/disconnect", h.disconnect)
		g.POST("/switch-network", h.switchNetwork)
	}
}

type walletResponse struct {
	wallet.State
	TargetNetworkID   int64  `json:"targetNetworkId"`
	TargetNetworkName string `json:"targetNetworkName"`
}

func (h *WalletHandlers) respond(c *gin.Context) {
	t := h.wallet.Target()
	c.JSON(http.StatusOK, walletResponse{
		State:             h.wallet.State(),
		TargetNetworkID:   t.ID,
		TargetNetworkName: t.Name,
	})
}

func (h *WalletHandlers) state(c *gin.Context) { h.respond(c) }

func (h *WalletHandlers) connect(c *gin.Context) {
	if err := h.wallet.Connect(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c)
}

func (h *WalletHandlers) disconnect(c *gin.Context) {
	if err := h.wallet.Disconnect(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c)
}

func (h *WalletHandlers) switchNetwork(c *gin.Context) {
	if err := h.wallet.SwitchToTargetNetwork(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c)
}
