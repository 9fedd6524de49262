package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig holds OIDC authentication settings.
type OIDCConfig struct {
	IssuerURL string
	Audience  string
	Enabled   bool
}

type contextKey string

const ctxUserID contextKey = "user_id"

// publicPaths are served without a bearer token.
var publicPaths = map[string]bool{
	"/api/v1/health": true,
}

// UserFromContext returns the authenticated caller, or "" when the request
// was not authenticated.
func UserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserID).(string)
	return v
}

// tokenClaims are the identity claims a benchmark caller may present. The
// first non-empty one names the caller.
type tokenClaims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

func (c tokenClaims) caller() string {
	for _, v := range []string{c.Subject, c.Email, c.PreferredUsername} {
		if v != "" {
			return v
		}
	}
	return ""
}

// oidcAuth verifies bearer tokens against the discovered issuer and stores
// the caller in the request context.
func oidcAuth(provider *oidc.Provider, audience string) func(http.Handler) http.Handler {
	verifier := provider.Verifier(&oidc.Config{ClientID: audience})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			raw, msg := bearerToken(r)
			if msg != "" {
				unauthorized(w, msg)
				return
			}
			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				unauthorized(w, "invalid token: "+err.Error())
				return
			}
			var claims tokenClaims
			if err := token.Claims(&claims); err != nil {
				unauthorized(w, "invalid token claims")
				return
			}

			ctx := r.Context()
			if user := claims.caller(); user != "" {
				ctx = context.WithValue(ctx, ctxUserID, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header. A non-empty
// message explains why there is none.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing Authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid Authorization header format"
	}
	return strings.TrimSpace(token), ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="parsebench"`)
	writeError(w, http.StatusUnauthorized, msg)
}
