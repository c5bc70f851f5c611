package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/http/auth"
)

var secret = []byte("till-secret")

func TestSignAndParse(t *testing.T) {
	token, err := auth.Sign(secret, "till-1", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := auth.Parse(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "till-1", claims.Subject)
}

func TestParse_Rejects(t *testing.T) {
	valid, err := auth.Sign(secret, "till-1", time.Hour, time.Now())
	require.NoError(t, err)

	expired, err := auth.Sign(secret, "till-1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	noDevice, err := auth.Sign(secret, "", time.Hour, time.Now())
	require.NoError(t, err)

	type testCase struct {
		name   string
		secret []byte
		token  string
	}

	tests := []testCase{
		{name: "wrong secret", secret: []byte("other"), token: valid},
		{name: "expired", secret: secret, token: expired},
		{name: "missing device", secret: secret, token: noDevice},
		{name: "garbage", secret: secret, token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Parse(tt.secret, tt.token)
			assert.ErrorIs(t, err, auth.ErrUnauthorized)
		})
	}
}

func TestMiddleware(t *testing.T) {
	token, err := auth.Sign(secret, "till-1", time.Hour, time.Now())
	require.NoError(t, err)

	var seen string

	h := auth.Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.DeviceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	type testCase struct {
		name       string
		header     string
		wantStatus int
	}

	tests := []testCase{
		{name: "valid bearer", header: "Bearer " + token, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sync/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	assert.Equal(t, "till-1", seen)
}
