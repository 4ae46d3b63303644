package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("quote: %w", New(CodeInvalidInput, "invalid postcode"))
		assert.True(t, HasCode(err, CodeInvalidInput))
		assert.False(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load user")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load user: connection refused", err.Error())
	assert.Equal(t, "failed to load user", MessageOf(err))
}

func TestErrorsIsComparesCodeAndMessage(t *testing.T) {
	err := New(CodeUnauthorized, "token has expired")
	require.ErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput: http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
