// Package auth guards mutating and administrative endpoints with HTTP Basic
// credentials. The password is never stored in clear: ADMIN_PASS_HASH carries
// a bcrypt hash, and an empty hash disables authentication entirely (useful
// for local development and tests).
package auth

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"posventa/internal/httpx"
)

type Credentials struct {
	User     string
	PassHash string
}

// Enabled reports whether a password hash is configured.
func (c Credentials) Enabled() bool { return c.PassHash != "" }

func (c Credentials) check(user, pass string) bool {
	if subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PassHash), []byte(pass)) == nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="posventa"`)
	httpx.JSONError(w, http.StatusUnauthorized, "No autorizado", nil)
}

// Require wraps a handler so every method needs valid credentials.
func (c Credentials) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !c.check(user, pass) {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProtectWrites leaves GET and HEAD open and requires credentials for
// everything else. Paths listed in open skip the check entirely, for
// endpoints that must work before the operator can log in.
func (c Credentials) ProtectWrites(next http.Handler, open ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Enabled() || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		for _, path := range open {
			if r.URL.Path == path {
				next.ServeHTTP(w, r)
				return
			}
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !c.check(user, pass) {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
