package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/upstarter/internal/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive connections of the session-provider test client
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func echoEmail() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserEmail(r.Context())))
	})
}

func TestSessionAuth(t *testing.T) {
	h := SessionAuth(StaticVerifier{"tok-1": "anna@example.it"}, zaptest.NewLogger(t))(echoEmail())

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "next-auth.session-token", Value: "tok-1"})
		}, http.StatusOK, "anna@example.it"},
		{"secure cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "__Secure-next-auth.session-token", Value: "tok-1"})
		}, http.StatusOK, "anna@example.it"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok-1") }, http.StatusOK, "anna@example.it"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRemoteVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/session", r.URL.Path)
		c, err := r.Cookie("next-auth.session-token")
		w.Header().Set("Content-Type", "application/json")
		if err != nil || c.Value != "good" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		exp := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		_, _ = w.Write([]byte(`{"user":{"email":"Anna@Example.it","name":"Anna"},"expires":"` + exp + `"}`))
	}))
	defer srv.Close()

	v := NewRemoteVerifier(srv.URL+"/", time.Second)
	email, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.it", email)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRemoteVerifier_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRemoteVerifier(srv.URL, time.Second).Verify(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSession))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, 0)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		req = req.WithContext(WithUserEmail(req.Context(), "a@b.it"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	assert.True(t, rl.Allow("other@b.it"), "buckets are per user")
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	t0 := time.Now()
	ok, _ := rl.take("k", t0)
	require.True(t, ok)
	ok, wait := rl.take("k", t0)
	require.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	ok, _ = rl.take("k", t0.Add(600*time.Millisecond))
	assert.True(t, ok)
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	rl.Allow("k")
	rl.evict(time.Now().Add(time.Hour), time.Minute)
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.buckets)
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"store":  CheckFunc(func(context.Context) error { return nil }),
		"object": CheckFunc(func(context.Context) error { return errors.New("down") }),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["store"].Status)
	assert.Equal(t, "down", body.Checks["object"].Message)
}

func TestReadinessHandler(t *testing.T) {
	down := ReadinessHandler(map[string]HealthChecker{
		"store": CheckFunc(func(context.Context) error { return errors.New("timeout") }),
	})
	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	ReadinessHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	before := GetMetrics()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/rec1", nil))
	after := GetMetrics()

	assert.Equal(t, before["requests_total"].(uint64)+1, after["requests_total"])
	assert.Equal(t, before["rate_limited"].(uint64)+1, after["rate_limited"])
	assert.EqualValues(t, 1, after["requests_by_route"].(map[string]uint64)["GET /api/projects/{id}"]-
		before["requests_by_route"].(map[string]uint64)["GET /api/projects/{id}"])
}

func TestAnalysisRecorder(t *testing.T) {
	before := GetMetrics()
	var r AnalysisRecorder
	r.AnalysisDone("heuristic")
	r.AnalysisFallback()
	r.StoreWriteFailed("project.create")
	after := GetMetrics()

	assert.Equal(t, before["analyses_total"].(uint64)+1, after["analyses_total"])
	assert.Equal(t, before["analysis_fallbacks"].(uint64)+1, after["analysis_fallbacks"])
	assert.EqualValues(t, 1, after["store_failures_by_op"].(map[string]uint64)["project.create"]-
		before["store_failures_by_op"].(map[string]uint64)["project.create"])
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateProjectID("recAbc123"))
	assert.NoError(t, ValidateProjectID("local-2b1c"))
	assert.Error(t, ValidateProjectID("../etc"))
	assert.Error(t, ValidateProjectID(""))

	assert.Equal(t, []string{"Go", "Sales"}, SplitList(" Go, ,Sales,"))
	assert.Equal(t, 50, ValidateLimit("", 50, 100))
	assert.Equal(t, 100, ValidateLimit("1000", 50, 100))
	assert.Equal(t, 7, ValidateLimit("7", 50, 100))
	assert.True(t, ParseBool("TRUE"))
	assert.False(t, ParseBool("no"))
	assert.Equal(t, "ab", SanitizeString(" a\x00b\x07 "))

	err := ValidateBody(schema.TeamProfileRequest, []byte(`{"name":"A","experience_years":-3}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experience_years")
	assert.Error(t, ValidateBody(schema.TeamProfileRequest, []byte(`{`)))
	assert.NoError(t, ValidateBody(schema.TeamProfileRequest, []byte(`{"name":"A"}`)))
}
