package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/service/notifications"
)

type NotificationHandlers struct {
	feed *notifications.Feed
}

func NewNotificationHandlers(f *notifications.Feed) *NotificationHandlers {
	return &NotificationHandlers{feed: f}
}

func (h *NotificationHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.recent)
}

func (h *NotificationHandlers) recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	c.JSON(http.StatusOK, h.feed.Recent(limit))
}
