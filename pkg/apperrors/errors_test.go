package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	withDetails := ErrInvalidToken.WithDetails("missing subject id")

	require.NotSame(t, ErrInvalidToken, withDetails)
	assert.Nil(t, ErrInvalidToken.Details)
	assert.Equal(t, "missing subject id", withDetails.Details)

	// Копия остается той же ошибкой для errors.Is.
	assert.True(t, errors.Is(withDetails, ErrInvalidToken))
}

func TestWithErrorDoesNotMutateSentinel(t *testing.T) {
	cause := errors.New("signature is invalid")
	wrapped := ErrInvalidToken.WithError(cause)

	require.NotSame(t, ErrInvalidToken, wrapped)
	assert.Nil(t, ErrInvalidToken.Err)
	assert.True(t, errors.Is(wrapped, cause))
	assert.True(t, errors.Is(wrapped, ErrInvalidToken))
}

func TestIsDistinguishesSentinels(t *testing.T) {
	assert.False(t, errors.Is(ErrPaymentIncomplete, ErrPayerMismatch))
	assert.False(t, errors.Is(ErrInvalidToken.WithDetails("x"), ErrTokenExpired))
}
