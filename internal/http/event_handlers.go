package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/catalog"
	apperrors "nfticket-backend/internal/common/errors"
)

type EventHandlers struct {
	catalog *catalog.Catalog
}

func NewEventHandlers(c *catalog.Catalog) *EventHandlers {
	return &EventHandlers{catalog: c}
}

func (h *EventHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.list)
	r.GET("/events/:id", h.get)
}

// @Summary List events
// @Tags events
// @Produce json
// @Success 200 {array} catalog.Event
// @Router /events [get]
func (h *EventHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.List())
}

func (h *EventHandlers) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("id", "must be an integer"))
		return
	}
	e, ok := h.catalog.Get(id)
	if !ok {
		_ = c.Error(apperrors.NewNotFoundError("event", id))
		return
	}
	c.JSON(http.StatusOK, e)
}
