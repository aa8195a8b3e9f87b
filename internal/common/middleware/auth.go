package middleware

import (
	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/user"
)

// Session is the part of identity.Session the middleware reads.
type Session interface {
	Identity() (user.Identity, bool)
}

// RequireAuth rejects requests while nobody is signed in and exposes the
// user id to later handlers and error logs.
func RequireAuth(s Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.Identity()
		if !ok {
			_ = c.Error(errors.NewUnauthorizedError("sign in required"))
			c.Abort()
			return
		}
		c.Set(UserIDKey, id.ID)
		c.Next()
	}
}
