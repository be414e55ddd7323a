package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/journey/internal/tokenstore"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
	maxRedirects        = 10
)

var authSchemes = []string{"bearer", "token"}

// NormalizeToken reduces a stored token to its bare value: trimmed, one layer
// of double quotes removed, one "Bearer"/"Token" scheme word removed. A value
// that is only a scheme word normalizes to "".
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		token = strings.TrimSpace(token[1 : len(token)-1])
	}
	for _, scheme := range authSchemes {
		if strings.EqualFold(token, scheme) {
			return ""
		}
		n := len(scheme)
		if len(token) > n && strings.EqualFold(token[:n], scheme) && (token[n] == ' ' || token[n] == '\t') {
			token = token[n:]
			break
		}
	}
	return strings.TrimSpace(token)
}

// BearerHeader returns the Authorization value for raw.
func BearerHeader(raw string) (string, error) {
	token := NormalizeToken(raw)
	if token == "" {
		return "", &AuthenticationRequiredError{Message: "no token stored"}
	}
	return bearerPrefix + token, nil
}

// Session attaches the stored bearer token to outgoing requests. It only
// reads the store.
type Session struct {
	store tokenstore.Store
}

// NewSession returns a Session reading from store.
func NewSession(store tokenstore.Store) *Session {
	return &Session{store: store}
}

// Header returns the normalized Authorization value for the stored token.
func (s *Session) Header(ctx context.Context) (string, error) {
	if s == nil || s.store == nil {
		return "", &AuthenticationRequiredError{Message: "no token store"}
	}
	raw, err := s.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return BearerHeader(raw)
}

// Authorize sets the Authorization header on req.
func (s *Session) Authorize(ctx context.Context, req *http.Request) error {
	value, err := s.Header(ctx)
	if err != nil {
		return err
	}
	req.Header.Set(headerAuthorization, value)
	return nil
}

// PreserveHeaders returns an http.Client CheckRedirect function that copies
// the named headers from the original request onto every redirect hop.
// net/http drops Authorization on cross-host redirects otherwise.
func PreserveHeaders(names ...string) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if len(via) == 0 {
			return nil
		}
		original := via[0]
		for _, name := range names {
			values := original.Header.Values(name)
			if len(values) == 0 {
				continue
			}
			req.Header.Del(name)
			for _, v := range values {
				req.Header.Add(name, v)
			}
		}
		return nil
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying it. ok is false
// when the token is not a JWT or carries no expiry. Nothing is enforced here.
func TokenExpiry(raw string) (expiry time.Time, ok bool) {
	token := NormalizeToken(raw)
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
