package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/logging"
)

type contextKey string

const UserEmailKey contextKey = "user_email"

// SessionCookies are checked in order; the secure variant is set over HTTPS.
var SessionCookies = []string{"__Secure-next-auth.session-token", "next-auth.session-token"}

// ErrInvalidSession is returned by verifiers for unknown or expired tokens.
var ErrInvalidSession = errors.New("invalid session")

// SessionVerifier resolves a session token to the user's email.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticVerifier maps tokens to emails. Used for self-hosting and tests.
type StaticVerifier map[string]string

func (s StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	// constant-time comparison against every known token
	email := ""
	for t, e := range s {
		if subtle.ConstantTimeCompare([]byte(token), []byte(t)) == 1 {
			email = e
		}
	}
	if email == "" {
		return "", ErrInvalidSession
	}
	return email, nil
}

// RemoteVerifier asks the auth provider's session endpoint who owns a token.
type RemoteVerifier struct {
	http   fastshot.ClientHttpMethods
	cookie string
}

// NewRemoteVerifier targets {baseURL}/api/auth/session.
func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteVerifier{
		http:   fastshot.NewClient(strings.TrimRight(baseURL, "/")).Config().SetTimeout(timeout).Build(),
		cookie: SessionCookies[1],
	}
}

type sessionResponse struct {
	User struct {
		Email string `json:"email"`
	} `json:"user"`
	Expires string `json:"expires"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (string, error) {
	resp, err := v.http.GET("/api/auth/session").
		Context().Set(ctx).
		Header().Add("Cookie", v.cookie+"="+token).
		Header().Add("Accept", "application/json").
		Send()
	if err != nil {
		return "", fmt.Errorf("session lookup: %w", err)
	}
	defer resp.Body().Close()

	if resp.Status().IsError() {
		return "", fmt.Errorf("session lookup: status %d", resp.Status().Code())
	}
	var s sessionResponse
	if err := resp.Body().AsJSON(&s); err != nil {
		// next-auth answers an empty body or {} for anonymous sessions
		return "", ErrInvalidSession
	}
	email := strings.TrimSpace(s.User.Email)
	if email == "" {
		return "", ErrInvalidSession
	}
	if s.Expires != "" {
		if exp, err := time.Parse(time.RFC3339, s.Expires); err == nil && exp.Before(time.Now()) {
			return "", ErrInvalidSession
		}
	}
	return strings.ToLower(email), nil
}

// SessionToken extracts the token from the session cookies or a Bearer header.
func SessionToken(r *http.Request) string {
	for _, name := range SessionCookies {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// SessionAuth rejects requests without a valid session with 401 {error}.
func SessionAuth(v SessionVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	log := logging.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				unauthorized(w, "Non autenticato")
				return
			}
			email, err := v.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidSession) {
					log.Warn("auth.session.lookup_failed", zap.Error(err))
				}
				unauthorized(w, "Sessione non valida o scaduta")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserEmail(r.Context(), email)))
		})
	}
}

func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailKey, email)
}

// UserEmail returns the authenticated email stored by SessionAuth.
func UserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
