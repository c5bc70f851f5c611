// Package auth authenticates tills against the sync API with HMAC-signed
// JWTs whose subject is the device id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tillsync"

var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	jwt.RegisteredClaims
}

type ctxKey struct{}

// Sign issues a token for deviceID valid for ttl from now.
func Sign(secret []byte, deviceID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing device token: %w", err)
	}

	return token, nil
}

// Parse validates a token and returns its claims.
func Parse(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing device id", ErrUnauthorized)
	}

	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// device id in the request context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := Parse(secret, token)
			if err != nil {
				slog.Warn("rejected device token", "error", err, "remote", r.RemoteAddr)
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceID returns the authenticated device, if any.
func DeviceID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
