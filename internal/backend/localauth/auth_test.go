package localauth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"todoshare/internal/apperr"
	"todoshare/internal/backend/localauth"
	"todoshare/internal/backend/memory"
)

const secret = "0123456789abcdef0123"

func newAuth(t *testing.T) (*localauth.Auth, *memory.Store) {
	t.Helper()
	docs := memory.New()
	a, err := localauth.New(docs, secret, time.Hour)
	require.NoError(t, err)
	a.SetCost(bcrypt.MinCost)
	return a, docs
}

func TestNewRejectsShortSecret(t *testing.T) {
	_, err := localauth.New(memory.New(), "short", 0)
	assert.Error(t, err)
}

func TestSignUpThenSignIn(t *testing.T) {
	a, docs := newAuth(t)
	ctx := context.Background()

	s, err := a.SignUp(ctx, "una@example.com", "secret1", "Una")
	require.NoError(t, err)
	assert.NotEmpty(t, s.UID)
	assert.Equal(t, 1, docs.Count(localauth.AccountsCollection))

	doc, err := docs.Get(ctx, localauth.AccountsCollection, s.UID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", doc.Fields["passwordHash"])

	in, err := a.SignIn(ctx, "una@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, s.UID, in.UID)
	assert.Equal(t, "Una", in.DisplayName)

	id, err := a.Verify(ctx, in.IDToken())
	require.NoError(t, err)
	assert.Equal(t, s.UID, id.UID)
	assert.Equal(t, "una@example.com", id.Email)
}

func TestSignUpValidation(t *testing.T) {
	a, _ := newAuth(t)
	ctx := context.Background()
	_, err := a.SignUp(ctx, "una@example.com", "secret1", "Una")
	require.NoError(t, err)

	_, err = a.SignUp(ctx, "una@example.com", "secret2", "Other")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = a.SignUp(ctx, "not-an-email", "secret1", "X")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = a.SignUp(ctx, "x@example.com", "123", "X")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSignInInvalidCredentials(t *testing.T) {
	a, _ := newAuth(t)
	ctx := context.Background()
	_, err := a.SignUp(ctx, "una@example.com", "secret1", "Una")
	require.NoError(t, err)

	_, err = a.SignIn(ctx, "una@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = a.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestVerifyRejectsRefreshAndForeignTokens(t *testing.T) {
	a, _ := newAuth(t)
	ctx := context.Background()
	s, err := a.SignUp(ctx, "una@example.com", "secret1", "Una")
	require.NoError(t, err)

	_, err = a.Verify(ctx, s.Token.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	other, err := localauth.New(memory.New(), "another-secret-value", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(ctx, s.IDToken())
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestExpiredTokenRefreshes(t *testing.T) {
	a, _ := newAuth(t)
	ctx := context.Background()
	issued := time.Now().Add(-2 * time.Hour)
	a.SetClock(func() time.Time { return issued })
	s, err := a.SignUp(ctx, "una@example.com", "secret1", "Una")
	require.NoError(t, err)

	a.SetClock(time.Now)
	_, err = a.Verify(ctx, s.IDToken())
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	tok, err := a.TokenSource(ctx, s.Token).Token()
	require.NoError(t, err)
	assert.True(t, tok.Valid())
	id, err := a.Verify(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.UID, id.UID)

	bad := &oauth2.Token{AccessToken: "x", RefreshToken: "garbage", Expiry: time.Now().Add(-time.Minute)}
	_, err = a.TokenSource(ctx, bad).Token()
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	a, docs := newAuth(t)
	ctx := context.Background()
	s, err := a.SignUp(ctx, "una@example.com", "secret1", "Una")
	require.NoError(t, err)

	require.NoError(t, a.UpdateProfile(ctx, s.IDToken(), "Una B."))
	doc, err := docs.Get(ctx, localauth.AccountsCollection, s.UID)
	require.NoError(t, err)
	assert.Equal(t, "Una B.", doc.Fields["displayName"])

	assert.ErrorIs(t, a.UpdateProfile(ctx, "bogus", "x"), apperr.ErrInvalidCredentials)
}
