package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/service"
	"github.com/msomdec/taskdesk/internal/validate"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// Guard inspects a request before it reaches its handler. It returns the
// request to continue with, possibly enriched, or an error that stops the
// chain.
type Guard func(*http.Request) (*http.Request, error)

// Pipeline runs guards in order and then h. The first guard error is
// written by respondError and nothing after it runs.
func Pipeline(h http.Handler, guards ...Guard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, g := range guards {
			next, err := g(r)
			if err != nil {
				respondError(w, r, err)
				return
			}
			r = next
		}
		h.ServeHTTP(w, r)
	})
}

// Authenticate resolves the bearer token in the Authorization header to a
// user and attaches it to the request context. The user is looked up on
// every request so deleted accounts lose access immediately.
func Authenticate(auth *service.AuthService) Guard {
	return func(r *http.Request) (*http.Request, error) {
		token, ok := bearerToken(r)
		if !ok {
			return nil, domain.ErrUnauthorized
		}
		user, err := auth.Authenticate(r.Context(), token)
		if err != nil {
			return nil, err
		}
		return r.WithContext(context.WithValue(r.Context(), userContextKey, user)), nil
	}
}

// Authorize permits the request only when the authenticated user holds one
// of roles. Without an authenticated user it fails closed.
func Authorize(roles ...domain.Role) Guard {
	return func(r *http.Request) (*http.Request, error) {
		user := UserFromContext(r.Context())
		if user == nil {
			return nil, domain.ErrUnauthorized
		}
		if !user.HasRole(roles...) {
			return nil, withMessage(domain.ErrForbidden, "Forbidden: insufficient permissions")
		}
		return r, nil
	}
}

// RateLimit rejects clients that exceed limiter, keyed by client IP and route.
func RateLimit(limiter service.RateLimiter, route string, metrics *Metrics) Guard {
	return func(r *http.Request) (*http.Request, error) {
		ip := clientIP(r)
		if !limiter.Allow(r.Context(), route+"|"+ip) {
			metrics.rateLimited(route)
			return nil, domain.ErrRateLimited
		}
		return r, nil
	}
}

// ValidateBody checks the JSON object body against schema. The body is
// restored afterwards so the handler can decode it again.
func ValidateBody(schema validate.Schema) Guard {
	return func(r *http.Request) (*http.Request, error) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		r.Body.Close()
		if err != nil || len(raw) > maxBodyBytes {
			return nil, errInvalidBody
		}

		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
			return nil, errInvalidBody
		}
		if res := schema.Validate(payload); !res.OK() {
			return nil, res.Err()
		}

		r.Body = io.NopCloser(bytes.NewReader(raw))
		return r, nil
	}
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data: https:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS allows cross-origin requests from the listed origins.
func CORS(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(origins, origin) || slices.Contains(origins, "*")) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
