package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/upstarter/internal/domain/ai"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "", "", 0)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"overall_score\":50}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "key", "", srv.URL, 256)
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())

	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"overall_score":50}`, out)
}

func TestComplete_Quota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "key", "", srv.URL, 0)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}
