package identity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/validation"
	"nfticket-backend/internal/domain/user"
	"nfticket-backend/internal/kvstore"
)

const accountKeyPrefix = "nft-ticket-account:"

type account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
}

// PasswordAuth keeps email/password accounts in the key-value store.
type PasswordAuth struct {
	store kvstore.Store
	cost  int
}

func NewPasswordAuth(store kvstore.Store, cost int) *PasswordAuth {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordAuth{store: store, cost: cost}
}

// Register creates an account. Name defaults to the local part of the email.
func (p *PasswordAuth) Register(ctx context.Context, creds Credentials) (*user.Identity, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(creds.Password); err != nil {
		return nil, apperrors.NewValidationError("password", err.Error())
	}
	if err := validation.ValidateDisplayName(creds.Name); err != nil {
		return nil, apperrors.NewValidationError("name", err.Error())
	}
	if _, ok, err := p.load(ctx, email); err != nil {
		return nil, err
	} else if ok {
		return nil, apperrors.NewConflictError("account", "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}
	name := strings.TrimSpace(creds.Name)
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}
	acc := account{ID: uuid.NewString(), Email: email, Name: name, PasswordHash: string(hash)}
	data, err := json.Marshal(acc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode account")
	}
	if err := p.store.Set(ctx, accountKeyPrefix+email, string(data)); err != nil {
		return nil, apperrors.NewCacheError("persist account", err)
	}
	return &user.Identity{ID: acc.ID, Email: acc.Email, Name: acc.Name}, nil
}

func (p *PasswordAuth) Authenticate(ctx context.Context, creds Credentials) (*user.Identity, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	acc, ok, err := p.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(creds.Password)) != nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}
	return &user.Identity{ID: acc.ID, Email: acc.Email, Name: acc.Name}, nil
}

func (p *PasswordAuth) load(ctx context.Context, email string) (account, bool, error) {
	raw, ok, err := p.store.Get(ctx, accountKeyPrefix+email)
	if err != nil {
		return account{}, false, apperrors.NewCacheError("load account", err)
	}
	if !ok {
		return account{}, false, nil
	}
	var acc account
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		return account{}, false, apperrors.Wrap(err, apperrors.ErrCodePersistenceParse, "corrupt account")
	}
	return acc, true, nil
}

func normalizeEmail(s string) (string, error) {
	email, err := validation.NormalizeEmail(s)
	if err != nil {
		return "", apperrors.NewValidationError("email", err.Error())
	}
	return email, nil
}
