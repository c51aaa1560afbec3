package auth

import (
	"net/http"
	"strings"
	"unicode"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderClientID = "X-Client-ID"
	maxIDLen       = 128
)

// IdentityMiddleware copies the caller's opaque user id and guest client
// id from request headers into the context. Proving who the caller is
// belongs to whatever sits in front of this service.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sub, ok := cleanID(r.Header.Get(HeaderUserID)); ok {
			ctx = WithSubject(ctx, sub)
		}
		if c, ok := cleanID(r.Header.Get(HeaderClientID)); ok {
			ctx = WithClient(ctx, c)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSubject rejects anonymous callers.
func RequireSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFromContext(r.Context()) == "" {
			http.Error(w, "missing "+HeaderUserID, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSessionKey rejects callers that carry neither a user id nor a
// client id, since their session could not be found again.
func RequireSessionKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionKey(r.Context()) == "" {
			http.Error(w, "missing "+HeaderUserID+" or "+HeaderClientID, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func cleanID(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxIDLen {
		return "", false
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	return v, true
}
