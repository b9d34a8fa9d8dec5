package app

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"video2mp3_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServer(t *testing.T, handler http.HandlerFunc) *AuthClient {
	t.Helper()
	logger.SetNewNop()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAuthClient(strings.TrimPrefix(srv.URL, "http://"))
}

func TestAuthClientLogin(t *testing.T) {
	t.Run("forwards basic auth and returns raw token", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/login", r.URL.Path)
			expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice@example.com:secret"))
			assert.Equal(t, expected, r.Header.Get("Authorization"))
			w.Write([]byte("jwt-token"))
		})

		token, status, err := client.Login("alice@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "jwt-token", token)
	})

	t.Run("rejection passes the upstream status through", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, status, err := client.Login("alice@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestAuthClientRegister(t *testing.T) {
	t.Run("success returns upstream body", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/register", r.URL.Path)

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "bob@example.com", req["email"])

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(RegisterRes{Message: "registered", Token: "jwt-token"})
		})

		res, status, err := client.Register("bob@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "jwt-token", res.Token)
	})

	t.Run("upstream error surfaces its message", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(RegisterRes{Error: "email already registered"})
		})

		_, status, err := client.Register("bob@example.com", "secret")
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, status)
		assert.Contains(t, err.Error(), "email already registered")
	})
}

func TestAuthClientValidate(t *testing.T) {
	t.Run("resolves username from claims", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/validate", r.URL.Path)
			assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{"username": "alice", "admin": true})
		})

		username, admin, err := client.Validate("Bearer good-token")
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
		assert.True(t, admin)
	})

	t.Run("falls back to email when username is absent", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"email": "alice@example.com", "admin": false})
		})

		username, admin, err := client.Validate("Bearer good-token")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", username)
		assert.False(t, admin)
	})

	t.Run("empty claims resolve to unknown", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{})
		})

		username, _, err := client.Validate("Bearer good-token")
		require.NoError(t, err)
		assert.Equal(t, "unknown", username)
	})

	t.Run("upstream rejection is not authorized", func(t *testing.T) {
		client := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, _, err := client.Validate("Bearer expired")
		require.Error(t, err)
	})
}
