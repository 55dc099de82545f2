package firebaseauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"todoshare/internal/apperr"
	"todoshare/internal/backend/firebaseauth"
)

// fakeToolkit answers the relyingparty and securetoken endpoints.
func fakeToolkit(t *testing.T) *httptest.Server {
	t.Helper()
	fail := func(w http.ResponseWriter, msg string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": msg},
		})
	}
	reply := func(w http.ResponseWriter, body map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/token") {
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("refresh_token") != "refresh-1" {
				fail(w, "INVALID_REFRESH_TOKEN")
				return
			}
			reply(w, map[string]any{
				"access_token":  "id-token-2",
				"refresh_token": "refresh-1",
				"expires_in":    "3600",
				"token_type":    "Bearer",
			})
			return
		}

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case strings.HasSuffix(r.URL.Path, "/verifyPassword"):
			if req["password"] != "secret" {
				fail(w, "INVALID_PASSWORD")
				return
			}
			reply(w, map[string]any{
				"localId": "uid-1", "email": req["email"], "displayName": "Una",
				"idToken": "id-token-1", "refreshToken": "refresh-1", "expiresIn": "3600",
			})
		case strings.HasSuffix(r.URL.Path, "/signupNewUser"):
			if req["email"] == "taken@example.com" {
				fail(w, "EMAIL_EXISTS")
				return
			}
			if req["password"] == "123" {
				fail(w, "WEAK_PASSWORD : Password should be at least 6 characters")
				return
			}
			reply(w, map[string]any{
				"localId": "uid-2", "email": req["email"],
				"idToken": "id-token-3", "refreshToken": "refresh-3", "expiresIn": "3600",
			})
		case strings.HasSuffix(r.URL.Path, "/getAccountInfo"):
			if req["idToken"] != "id-token-1" {
				fail(w, "INVALID_ID_TOKEN")
				return
			}
			reply(w, map[string]any{
				"users": []map[string]any{{"localId": "uid-1", "email": "una@example.com", "displayName": "Una"}},
			})
		case strings.HasSuffix(r.URL.Path, "/setAccountInfo"):
			assert.Equal(t, "Una B.", req["displayName"])
			reply(w, map[string]any{"localId": "uid-1"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *firebaseauth.Client {
	t.Helper()
	srv := fakeToolkit(t)
	c, err := firebaseauth.New(context.Background(), "test-key", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	c.SetTokenURL(srv.URL + "/v1/token")
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := firebaseauth.New(context.Background(), "")
	assert.Error(t, err)
}

func TestSignIn(t *testing.T) {
	c := newClient(t)
	s, err := c.SignIn(context.Background(), "una@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", s.UID)
	assert.Equal(t, "Una", s.DisplayName)
	assert.Equal(t, "id-token-1", s.IDToken())
	assert.True(t, s.Token.Valid())

	_, err = c.SignIn(context.Background(), "una@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestSignUp(t *testing.T) {
	c := newClient(t)
	s, err := c.SignUp(context.Background(), "new@example.com", "secret", "Newt")
	require.NoError(t, err)
	assert.Equal(t, "uid-2", s.UID)
	assert.Equal(t, "Newt", s.DisplayName)

	_, err = c.SignUp(context.Background(), "taken@example.com", "secret", "X")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = c.SignUp(context.Background(), "weak@example.com", "123", "X")
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestVerifyAndUpdateProfile(t *testing.T) {
	c := newClient(t)
	id, err := c.Verify(context.Background(), "id-token-1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)

	_, err = c.Verify(context.Background(), "forged")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	require.NoError(t, c.UpdateProfile(context.Background(), "id-token-1", "Una B."))
}

func TestTokenSourceRefreshes(t *testing.T) {
	c := newClient(t)
	expired := &oauth2.Token{AccessToken: "id-token-1", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Minute)}

	tok, err := c.TokenSource(context.Background(), expired).Token()
	require.NoError(t, err)
	assert.Equal(t, "id-token-2", tok.AccessToken)

	revoked := &oauth2.Token{AccessToken: "x", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Minute)}
	_, err = c.TokenSource(context.Background(), revoked).Token()
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}
