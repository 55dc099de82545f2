// Package firebaseauth implements identity.Authenticator with Firebase
// Authentication through the Google Identity Toolkit API.
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"todoshare/internal/apperr"
	"todoshare/internal/identity"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// SecureTokenURL exchanges refresh tokens for fresh ID tokens.
	SecureTokenURL = "https://securetoken.googleapis.com/v1/token"
)

// Client implements identity.Authenticator.
type Client struct {
	svc    *identitytoolkit.Service
	oauth  *oauth2.Config
	apiKey string
}

// New creates a client for the project identified by apiKey. Extra options
// (such as option.WithEndpoint) are passed to the Identity Toolkit service.
func New(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("firebase api_key is not configured")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit service: %w", err)
	}
	return &Client{
		svc:    svc,
		apiKey: apiKey,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  SecureTokenURL + "?key=" + apiKey,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// SetTokenURL points token refresh at another securetoken endpoint (for testing).
func (c *Client) SetTokenURL(url string) {
	c.oauth.Endpoint.TokenURL = url + "?key=" + c.apiKey
}

// SignUp implements identity.Authenticator.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error) {
	callCtx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}).Context(callCtx).Do()
	if err != nil {
		return identity.Session{}, wrapError("sign up", err)
	}
	if resp.IdToken == "" {
		return c.SignIn(ctx, email, password)
	}
	return identity.Session{
		Identity: identity.Identity{UID: resp.LocalId, Email: resp.Email, DisplayName: displayName},
		Token:    newToken(resp.IdToken, resp.RefreshToken, resp.ExpiresIn),
	}, nil
}

// SignIn implements identity.Authenticator.
func (c *Client) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return identity.Session{}, wrapError("sign in", err)
	}
	return identity.Session{
		Identity: identity.Identity{UID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName},
		Token:    newToken(resp.IdToken, resp.RefreshToken, resp.ExpiresIn),
	}, nil
}

// Verify implements identity.Authenticator by looking the token's account up.
func (c *Client) Verify(ctx context.Context, idToken string) (identity.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: idToken,
	}).Context(ctx).Do()
	if err != nil {
		return identity.Identity{}, wrapError("verify token", err)
	}
	if len(resp.Users) == 0 {
		return identity.Identity{}, apperr.ErrInvalidCredentials
	}
	u := resp.Users[0]
	return identity.Identity{UID: u.LocalId, Email: u.Email, DisplayName: u.DisplayName}, nil
}

// UpdateProfile implements identity.Authenticator.
func (c *Client) UpdateProfile(ctx context.Context, idToken, displayName string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := c.svc.Relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:     idToken,
		DisplayName: displayName,
	}).Context(ctx).Do()
	if err != nil {
		return wrapError("update profile", err)
	}
	return nil
}

// TokenSource implements identity.Authenticator. Refreshes go to securetoken,
// whose access_token is a fresh ID token.
func (c *Client) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return &tokenSource{src: c.oauth.TokenSource(ctx, tok)}
}

type tokenSource struct {
	src oauth2.TokenSource
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("refresh session: %w", apperr.ErrInvalidCredentials)
		}
		return nil, err
	}
	return tok, nil
}

func newToken(idToken, refreshToken string, expiresIn int64) *oauth2.Token {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return &oauth2.Token{
		AccessToken:  idToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Duration(expiresIn) * time.Second),
	}
}

// wrapError maps Identity Toolkit error codes into the apperr taxonomy.
func wrapError(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return apperr.Store(op, err)
	}
	code, _, _ := strings.Cut(gerr.Message, " ")
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS",
		"USER_DISABLED", "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	case "EMAIL_EXISTS":
		return apperr.Validation("email", "email already in use")
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return apperr.Validation("email", "invalid email address")
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return apperr.Validation("password", "password should be at least 6 characters")
	}
	if gerr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}
	return apperr.Store(op, err)
}
