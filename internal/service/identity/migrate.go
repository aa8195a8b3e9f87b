package identity

import (
	"context"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/service/ledger"
)

// adoptLegacy moves tickets stored under the old device-wide key into l, the
// empty ledger of the identity signing in. The legacy key is removed only
// after every record was written.
func (s *Session) adoptLegacy(ctx context.Context, l *ledger.Ledger) {
	legacy, err := ledger.Load(ctx, s.store, ledger.LegacyKey)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read legacy ledger")
		return
	}
	if legacy.Len() == 0 {
		return
	}

	for _, r := range legacy.All() {
		if err := l.Add(ctx, r); err != nil && !apperrors.HasCode(err, apperrors.ErrCodeConflict) {
			s.log.Error().Err(err).Str("token_id", r.TokenID).Msg("Failed to migrate legacy ticket")
			return
		}
	}
	if err := s.store.Remove(ctx, ledger.LegacyKey); err != nil {
		s.log.Error().Err(err).Msg("Failed to remove legacy ledger")
		return
	}
	s.log.Info().Str("key", l.Key()).Int("tickets", l.Len()).Msg("Migrated legacy tickets")
}
