package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeWalksTheWholeChain(t *testing.T) {
	inner := NewConflictError("ticket", "duplicate token 7")
	outer := Wrap(fmt.Errorf("add: %w", inner), ErrCodeSettlementFailed, "settlement failed")

	assert.True(t, HasCode(outer, ErrCodeSettlementFailed))
	assert.True(t, HasCode(outer, ErrCodeConflict))
	assert.False(t, HasCode(outer, ErrCodeNotFound))
	assert.False(t, HasCode(nil, ErrCodeConflict))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeInternal))
}

func TestAsAppErrorReturnsOutermost(t *testing.T) {
	err := fmt.Errorf("handler: %w", Wrap(NewNotFoundError("ticket", "9"), ErrCodeCacheError, "lookup"))
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeCacheError, appErr.Code)

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestIsMatchesByCode(t *testing.T) {
	err := NewInvalidTransitionError("processing", "confirm")
	assert.ErrorIs(t, err, &AppError{Code: ErrCodeInvalidTransition})
	assert.NotErrorIs(t, err, &AppError{Code: ErrCodeConflict})
	assert.Equal(t, "processing", err.Details["state"])
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] ticket not found", NewNotFoundError("ticket", "1").Error())
	wrapped := NewCacheError("persist ledger", stderrors.New("disk full"))
	assert.Equal(t, "[CACHE_ERROR] Storage operation failed: persist ledger: disk full", wrapped.Error())
	assert.True(t, wrapped.IsInternal())
	assert.NotEmpty(t, wrapped.Stack)
}

func TestWrapfFormatsMessage(t *testing.T) {
	err := Wrapf(stderrors.New("dial refused"), ErrCodeExternalAPI, "amqp publish to queue %s", "tickets")
	assert.Equal(t, "[EXTERNAL_API_ERROR] amqp publish to queue tickets: dial refused", err.Error())
	assert.True(t, HasCode(err, ErrCodeExternalAPI))
}
