package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, CodeInternal, "store unavailable")

	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "store unavailable")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestWrap_NilCauseReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCode_WalksTheChain(t *testing.T) {
	inner := New(CodeValidation, "bad claim")
	outer := Wrap(inner, CodeInternal, "resolve failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeValidation))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestHasCode_SeesThroughForeignWrapping(t *testing.T) {
	coded := New(CodeValidation, "bad claim")
	foreign := fmt.Errorf("handler: %w", coded)

	assert.True(t, HasCode(foreign, CodeValidation))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad claim")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:         http.StatusBadRequest,
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInvariantViolation: http.StatusInternalServerError,
		CodeInternal:           http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
