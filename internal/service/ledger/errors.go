package ledger

import apperrors "nfticket-backend/internal/common/errors"

// ErrTicketNotFound is returned by SetStatus for an unknown token id. Callers
// treat it as a logic error: log it, don't show it to the user.
func ErrTicketNotFound(tokenID string) *apperrors.AppError {
	return apperrors.NewNotFoundError("ticket", tokenID)
}

// ErrDuplicateToken is returned by Add when the token id is already owned.
func ErrDuplicateToken(tokenID string) *apperrors.AppError {
	return apperrors.NewConflictError("ticket", "token id already in ledger").
		WithDetail("token_id", tokenID)
}
