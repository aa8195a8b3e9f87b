package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/domain/user"
)

const InitDataHeader = "X-Telegram-Init-Data"

// InitDataAuthenticator signs a user in from Telegram init-data.
type InitDataAuthenticator interface {
	IsAuthenticated() bool
	AuthenticateInitData(ctx context.Context, initData string) (user.Identity, error)
}

// TelegramAutoLogin signs the Mini App user in when a request carries
// init-data and nobody is signed in yet. Invalid init-data is logged and the
// request continues unauthenticated.
func TelegramAutoLogin(a InitDataAuthenticator) gin.HandlerFunc {
	log := logger.Component("http")
	return func(c *gin.Context) {
		initData := c.GetHeader(InitDataHeader)
		if initData == "" || a.IsAuthenticated() {
			c.Next()
			return
		}
		id, err := a.AuthenticateInitData(c.Request.Context(), initData)
		if err != nil {
			log.Warn().Err(err).Str("request_id", getRequestID(c)).Msg("Telegram auto-login failed")
			c.Next()
			return
		}
		log.Debug().Str("user_id", id.ID).Msg("Telegram auto-login")
		c.Next()
	}
}
