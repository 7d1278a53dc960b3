package revocation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilnode/nildb/internal/revocation"
)

func TestAnyRevokedFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"revoked": []string{}})
	}))
	defer srv.Close()

	c := revocation.New(revocation.Config{BaseURL: srv.URL})
	revoked, err := c.AnyRevoked(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAnyRevokedTrue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"revoked": []string{"abc"}})
	}))
	defer srv.Close()

	c := revocation.New(revocation.Config{BaseURL: srv.URL})
	revoked, err := c.AnyRevoked(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAnyRevokedEmptyHashesShortCircuits(t *testing.T) {
	c := revocation.New(revocation.Config{BaseURL: "http://unused.invalid"})
	revoked, err := c.AnyRevoked(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAnyRevokedRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := revocation.New(revocation.Config{BaseURL: srv.URL, MaxAttempts: 2})
	_, err := c.AnyRevoked(context.Background(), []string{"abc"})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
