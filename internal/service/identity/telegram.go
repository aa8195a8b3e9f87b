package identity

import (
	"context"
	"strconv"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/user"
)

// TelegramAuth signs users in from Telegram Mini App init-data.
type TelegramAuth struct {
	botToken string
	expIn    time.Duration
}

// NewTelegramAuth validates against botToken. expIn of zero disables the
// expiry check.
func NewTelegramAuth(botToken string, expIn time.Duration) *TelegramAuth {
	return &TelegramAuth{botToken: botToken, expIn: expIn}
}

func (t *TelegramAuth) Authenticate(_ context.Context, creds Credentials) (*user.Identity, error) {
	if creds.InitData == "" {
		return nil, apperrors.NewValidationError("initData", "missing init data")
	}
	if err := initdata.Validate(creds.InitData, t.botToken, t.expIn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "invalid init data")
	}
	parsed, err := initdata.Parse(creds.InitData)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid init data format")
	}
	if parsed.User.ID == 0 {
		return nil, apperrors.NewUnauthorizedError("init data has no user")
	}

	name := strings.TrimSpace(parsed.User.FirstName + " " + parsed.User.LastName)
	if name == "" {
		name = parsed.User.Username
	}
	return &user.Identity{
		ID:   "tg-" + strconv.FormatInt(parsed.User.ID, 10),
		Name: name,
	}, nil
}

// AuthenticateInitData is Authenticate for a bare Telegram init-data string.
func (s *Session) AuthenticateInitData(ctx context.Context, initData string) (user.Identity, error) {
	return s.Authenticate(ctx, Credentials{InitData: initData})
}
