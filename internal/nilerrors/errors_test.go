package nilerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(DatabaseError, "insert failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("context: %w", New(Forbidden, "nope"))
	assert.True(t, Is(err, Forbidden))
	assert.False(t, Is(err, Unauthorized))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		DataValidation:       http.StatusBadRequest,
		Unauthorized:         http.StatusUnauthorized,
		PaymentRequired:      http.StatusPaymentRequired,
		Forbidden:            http.StatusForbidden,
		ResourceAccessDenied: http.StatusForbidden,
		CollectionNotFound:   http.StatusNotFound,
		DuplicateEntry:       http.StatusConflict,
		Timeout:              http.StatusGatewayTimeout,
	}
	for kind, want := range cases {
		got := HTTPStatus(New(kind, "x"))
		assert.Equal(t, want, got, "kind %s", kind)
	}
}

func TestHTTPStatusUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
