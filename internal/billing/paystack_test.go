package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTransaction(t *testing.T) {
	var got initializeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://pay.example.com/abc"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	url, err := c.InitializeTransaction(context.Background(), "ada@example.com", 1999, "ref-123", "https://app.example.com/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/abc", url)

	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, int64(1999), got.Amount)
	assert.Equal(t, "ref-123", got.Reference)
	assert.Equal(t, "https://app.example.com/callback", got.CallbackURL)
}

func TestInitializeTransactionGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":false,"message":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_bad")
	_, err := c.InitializeTransaction(context.Background(), "ada@example.com", 1999, "ref-123", "")

	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
}

func TestVerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref-123", r.URL.Path)
		w.Write([]byte(`{"status":true,"data":{"status":"success","amount":1999}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	result, err := c.VerifyTransaction(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, int64(1999), result.AmountCents)
}

func TestVerifyTransactionMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	_, err := c.VerifyTransaction(context.Background(), "ref-123")

	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Contains(t, upstream.Body, "malformed")
}
