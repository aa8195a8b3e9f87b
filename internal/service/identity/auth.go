package identity

import (
	"context"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/user"
)

// Credentials carries whatever a provider needs. Telegram uses InitData,
// password accounts use Email and Password.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	InitData string `json:"initData"`
}

// AuthProvider turns credentials into an identity.
type AuthProvider interface {
	Authenticate(ctx context.Context, creds Credentials) (*user.Identity, error)
}

// Router sends Telegram init-data to Telegram and everything else to
// Password. Either may be nil.
type Router struct {
	Telegram AuthProvider
	Password AuthProvider
}

func (r Router) Authenticate(ctx context.Context, creds Credentials) (*user.Identity, error) {
	switch {
	case creds.InitData != "" && r.Telegram != nil:
		return r.Telegram.Authenticate(ctx, creds)
	case creds.InitData == "" && r.Password != nil:
		return r.Password.Authenticate(ctx, creds)
	}
	return nil, apperrors.NewUnauthorizedError("unsupported credentials")
}
