package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSuccess(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from upstream"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	out, err := c.Complete(context.Background(), "gpt-4o-mini", []Message{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "hi"},
	}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "hello from upstream", out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 0.5, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestCompleteUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	_, err := c.Complete(context.Background(), "gpt-4o-mini", []Message{{Role: "user", Content: "hi"}}, 0.5)

	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Contains(t, upstream.Body, "rate limited")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	_, err := c.Complete(context.Background(), "gpt-4o-mini", []Message{{Role: "user", Content: "hi"}}, 0.5)

	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Contains(t, upstream.Body, "no choices")
}

func TestCompleteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	_, err := c.Complete(context.Background(), "gpt-4o-mini", []Message{{Role: "user", Content: "hi"}}, 0.5)

	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "sk-test")
	c.http.Timeout = 50 * time.Millisecond

	_, err := c.Complete(context.Background(), "gpt-4o-mini", []Message{{Role: "user", Content: "hi"}}, 0.5)
	assert.ErrorIs(t, err, apperr.ErrUpstreamTimeout)
}

func TestCompleteContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "sk-test")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "gpt-4o-mini", []Message{{Role: "user", Content: "hi"}}, 0.5)
	assert.ErrorIs(t, err, apperr.ErrUpstreamTimeout)
}
