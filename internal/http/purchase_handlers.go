package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/service/purchase"
)

const maxWait = 30 * time.Second

type PurchaseHandlers struct {
	purchases *purchase.Service
}

func NewPurchaseHandlers(s *purchase.Service) *PurchaseHandlers {
	return &PurchaseHandlers{purchases: s}
}

func (h *PurchaseHandlers) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/purchases")
	{
		g.POST("", h.open)
		g.GET("/:id", h.get)
		g.PUT("/:id/rail", h.selectRail)
		g.POST("/:id/confirm", h.confirm)
		g.POST("/:id/retry", h.retry)
		g.DELETE("/:id", h.close)
	}
}

type openRequest struct {
	EventID int64         `json:"eventId" binding:"required"`
	Rail    purchase.Rail `json:"rail"`
}

type railRequest struct {
	Rail purchase.Rail `json:"rail" binding:"required"`
}

// @Summary Start a purchase
// @Tags purchases
// @Accept json
// @Produce json
// @Success 201 {object} purchase.Snapshot
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /purchases [post]
func (h *PurchaseHandlers) open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid json"))
		return
	}
	w, err := h.purchases.Open(c.Request.Context(), req.EventID, req.Rail)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, w.Snapshot())
}

// @Summary Get a purchase
// @Description Returns the purchase state. With ?wait=<duration> the call
// @Description blocks until an in-flight settlement resolves or the wait ends.
// @Tags purchases
// @Produce json
// @Success 200 {object} purchase.Snapshot
// @Router /purchases/{id} [get]
func (h *PurchaseHandlers) get(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			_ = c.Error(apperrors.NewValidationError("wait", "must be a duration like 5s"))
			return
		}
		if d > maxWait {
			d = maxWait
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-w.Done():
		case <-t.C:
		case <-c.Request.Context().Done():
		}
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

func (h *PurchaseHandlers) selectRail(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	var req railRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid json"))
		return
	}
	if err := w.SelectRail(req.Rail); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// @Summary Confirm a purchase
// @Description On the crypto rail this may connect the wallet or switch its
// @Description network instead of settling; confirm again afterwards.
// @Tags purchases
// @Produce json
// @Success 200 {object} purchase.Snapshot
// @Failure 409 {object} middleware.ErrorResponse
// @Router /purchases/{id}/confirm [post]
func (h *PurchaseHandlers) confirm(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := w.Confirm(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

func (h *PurchaseHandlers) retry(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := w.Retry(); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

func (h *PurchaseHandlers) close(c *gin.Context) {
	if err := h.purchases.Close(c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PurchaseHandlers) lookup(c *gin.Context) (*purchase.Workflow, bool) {
	w, err := h.purchases.Get(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return w, true
}
