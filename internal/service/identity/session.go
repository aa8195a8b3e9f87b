// Package identity holds the signed-in user and the ledger scoped to them.
package identity

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/domain/user"
	"nfticket-backend/internal/kvstore"
	"nfticket-backend/internal/service/ledger"
	"nfticket-backend/internal/service/notifications"
)

// IdentityKey is where the current identity is mirrored.
const IdentityKey = "nft-ticket-user"

// Session is the explicit replacement for ambient "current user" state. It is
// created empty, filled by Init or SignIn, and emptied by SignOut.
//
// Every ledger the session hands out is kept in ledgers, so one identity never
// has two in-memory copies writing over each other in the store.
type Session struct {
	mu       sync.RWMutex
	store    kvstore.Store
	auth     AuthProvider
	notifier notifications.Notifier
	identity *user.Identity
	ledger   *ledger.Ledger
	log      zerolog.Logger

	ledgersMu sync.Mutex
	ledgers   map[string]*ledger.Ledger
}

func NewSession(store kvstore.Store, auth AuthProvider, notifier notifications.Notifier) *Session {
	return &Session{
		store:    store,
		auth:     auth,
		notifier: notifier,
		log:      logger.Component("identity"),
		ledgers:  make(map[string]*ledger.Ledger),
	}
}

// Init restores the mirrored identity and its ledger. A corrupt mirror is
// discarded and the session starts signed out.
func (s *Session) Init(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, IdentityKey)
	if err != nil {
		return apperrors.NewCacheError("load identity", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var id user.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.ID == "" {
		if err == nil {
			err = apperrors.NewValidationError("id", "must not be empty")
		}
		s.log.Warn().
			Err(apperrors.Wrap(err, apperrors.ErrCodePersistenceParse, "corrupt identity")).
			Msg("Discarding persisted identity")
		if err := s.store.Remove(ctx, IdentityKey); err != nil {
			s.log.Error().Err(err).Msg("Failed to remove corrupt identity")
		}
		return nil
	}

	l, err := s.openLedger(ctx, id.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.identity = &id
	s.ledger = l
	s.mu.Unlock()

	s.log.Info().Str("user_id", id.ID).Int("tickets", l.Len()).Msg("Session restored")
	return nil
}

// SignIn makes id the current identity, overwriting any previous one, and
// loads the ledger stored for it.
func (s *Session) SignIn(ctx context.Context, id user.Identity) error {
	if id.ID == "" {
		return apperrors.NewValidationError("id", "must not be empty")
	}

	data, err := json.Marshal(id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode identity")
	}
	l, err := s.openLedger(ctx, id.ID)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, IdentityKey, string(data)); err != nil {
		return apperrors.NewCacheError("persist identity", err)
	}

	s.mu.Lock()
	s.identity = &id
	s.ledger = l
	s.mu.Unlock()

	s.log.Info().Str("user_id", id.ID).Int("tickets", l.Len()).Msg("Signed in")
	return nil
}

// SignOut forgets the current identity. Ledger data stays in the store so
// signing back in restores it.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	prev := s.identity
	s.identity = nil
	s.ledger = nil
	s.mu.Unlock()

	if err := s.store.Remove(ctx, IdentityKey); err != nil {
		return apperrors.NewCacheError("remove identity", err)
	}
	if prev != nil {
		s.log.Info().Str("user_id", prev.ID).Msg("Signed out")
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, notifications.LoggedOut())
	}
	return nil
}

// Authenticate verifies credentials with the configured provider and signs
// the resulting identity in.
func (s *Session) Authenticate(ctx context.Context, creds Credentials) (user.Identity, error) {
	if s.auth == nil {
		return user.Identity{}, apperrors.NewUnauthorizedError("no auth provider configured")
	}
	id, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		return user.Identity{}, err
	}
	if err := s.SignIn(ctx, *id); err != nil {
		return user.Identity{}, err
	}
	return *id, nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

func (s *Session) Identity() (user.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return user.Identity{}, false
	}
	return *s.identity, true
}

// Ledger returns the current identity's ledger, or UNAUTHORIZED when signed out.
func (s *Session) Ledger() (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ledger == nil {
		return nil, apperrors.NewUnauthorizedError("sign in to access tickets")
	}
	return s.ledger, nil
}

// openLedger returns the ledger an identity signs in with, adopting legacy
// device tickets into it while it is still empty.
func (s *Session) openLedger(ctx context.Context, identityID string) (*ledger.Ledger, error) {
	l, err := s.sharedLedger(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		s.adoptLegacy(ctx, l)
	}
	return l, nil
}

// sharedLedger loads identityID's ledger once and returns the same instance
// on every later call.
func (s *Session) sharedLedger(ctx context.Context, identityID string) (*ledger.Ledger, error) {
	s.ledgersMu.Lock()
	defer s.ledgersMu.Unlock()
	if l, ok := s.ledgers[identityID]; ok {
		return l, nil
	}
	l, err := ledger.Load(ctx, s.store, ledger.Key(identityID))
	if err != nil {
		return nil, err
	}
	s.ledgers[identityID] = l
	return l, nil
}

// LedgerFor returns the ledger of identityID whether or not it is signed in.
// It is the same instance SignIn and Ledger use. An empty id means the
// signed-in identity.
func (s *Session) LedgerFor(ctx context.Context, identityID string) (*ledger.Ledger, error) {
	if identityID == "" {
		return s.Ledger()
	}
	return s.sharedLedger(ctx, identityID)
}
