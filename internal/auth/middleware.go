package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write
// the device id in a request context — no collisions with other packages.
type contextKey string

const deviceIDKey contextKey = "deviceID"

// RequireDevice is a middleware that enforces a valid device token on
// write routes.
//
// It reads the token from the Authorization header ("Bearer <jwt>"),
// validates it, and stores the device id in the request context. Missing
// or invalid tokens end the request with 401 Unauthorized.
//
// WHY A HEADER, NOT A COOKIE?
// The callers are device clients, not browsers — there is no cookie jar
// and no XSS surface. Bearer tokens in the Authorization header are the
// standard shape for API clients.
func RequireDevice(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := extractDeviceID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid device token required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithDeviceID returns a context carrying the given device id,
// as if RequireDevice had validated a token for it. Handler tests use
// this to exercise authenticated routes without minting real tokens.
func ContextWithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// DeviceIDFromContext retrieves the authenticated device id from the
// request context.
//
// Returns ("", false) when the request carried no valid token.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey).(string)
	return id, ok && id != ""
}

// extractDeviceID reads and validates the bearer token.
func extractDeviceID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("auth: missing bearer token")
	}
	return tokens.Validate(strings.TrimPrefix(header, prefix))
}
