// Package identity provides the HTTP client for the hosted identity
// provider. The provider issues JWT access tokens via a password grant
// and exposes REST endpoints for sign-up, sign-out, session introspection,
// profile metadata, and password reset.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

const defaultTimeout = 30 * time.Second

// ClientConfig holds configuration for the identity provider client.
type ClientConfig struct {
	// BaseURL is the provider root, e.g. "https://project.hosted.example".
	BaseURL string
	// APIKey is the public (anon) API key sent with every request.
	APIKey string
	// JWKSURL optionally enables local access-token verification against
	// the provider's key set, avoiding an introspection round-trip.
	JWKSURL string
	// Issuer is the expected token issuer; required when JWKSURL is set.
	Issuer string
	// HTTPClient is optional; a cookie-jar-equipped default is built when nil.
	HTTPClient *http.Client
}

// Client implements ports.IdentityClient against the hosted provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tokenConf  *oauth2.Config
	verifier   *gooidc.IDTokenVerifier
}

var _ ports.IdentityClient = (*Client)(nil)

// NewClient creates a new identity provider client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("identity: API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The provider sets auxiliary cookies on some flows; keep them.
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("identity: build cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: defaultTimeout, Jar: jar}
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	c := &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		tokenConf: &oauth2.Config{
			ClientID: cfg.APIKey,
			Endpoint: oauth2.Endpoint{TokenURL: base + "/auth/v1/token?grant_type=password"},
		},
	}

	if cfg.JWKSURL != "" {
		if cfg.Issuer == "" {
			return nil, errors.New("identity: issuer is required when JWKS URL is set")
		}
		keySet := gooidc.NewRemoteKeySet(c.oauthContext(context.Background()), cfg.JWKSURL)
		c.verifier = gooidc.NewVerifier(cfg.Issuer, keySet, &gooidc.Config{
			// Access tokens carry the API audience, not a client id.
			SkipClientIDCheck: true,
		})
	}

	return c, nil
}

// oauthContext injects our HTTP client into oauth2/oidc machinery.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// SignIn performs the password grant and returns the principal plus the issued token.
func (c *Client) SignIn(ctx context.Context, email, password string) (domainauth.Principal, domainauth.Token, error) {
	if email == "" || password == "" {
		return domainauth.Principal{}, domainauth.Token{}, errors.New("email and password are required")
	}

	ot, err := c.tokenConf.PasswordCredentialsToken(c.oauthContext(ctx), email, password)
	if err != nil {
		return domainauth.Principal{}, domainauth.Token{}, mapOAuthError(err)
	}
	tok := fromOAuthToken(ot)

	principal, err := c.CurrentPrincipal(ctx, tok)
	if err != nil {
		return domainauth.Principal{}, domainauth.Token{}, fmt.Errorf("introspect after sign-in: %w", err)
	}
	return principal, tok, nil
}

// SignUp registers a new account and returns the principal plus the issued token.
func (c *Client) SignUp(ctx context.Context, in ports.SignUpInput) (domainauth.Principal, domainauth.Token, error) {
	if in.Email == "" || in.Password == "" {
		return domainauth.Principal{}, domainauth.Token{}, errors.New("email and password are required")
	}

	body := map[string]any{"email": in.Email, "password": in.Password}
	if len(in.Metadata) > 0 {
		body["data"] = in.Metadata
	}

	var resp struct {
		AccessToken  string        `json:"access_token"`
		RefreshToken string        `json:"refresh_token"`
		ExpiresIn    int           `json:"expires_in"`
		User         principalJSON `json:"user"`
	}
	if err := c.do(ctx, requestSpec{method: http.MethodPost, path: "/auth/v1/signup", body: body}, &resp); err != nil {
		return domainauth.Principal{}, domainauth.Token{}, err
	}

	tok := domainauth.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	return resp.User.toPrincipal(), tok, nil
}

// SignOut revokes the token with the provider.
func (c *Client) SignOut(ctx context.Context, tok domainauth.Token) error {
	if tok.AccessToken == "" {
		return nil // nothing to revoke
	}
	return c.do(ctx, requestSpec{method: http.MethodPost, path: "/auth/v1/logout", token: tok.AccessToken}, nil)
}

// CurrentPrincipal inspects a token and returns the principal it belongs to.
// With a configured verifier the claims are read locally after signature
// verification; otherwise the provider's introspection endpoint is used.
func (c *Client) CurrentPrincipal(ctx context.Context, tok domainauth.Token) (domainauth.Principal, error) {
	if tok.AccessToken == "" {
		return domainauth.Principal{}, apperrors.NotFound("No session token present")
	}

	if c.verifier != nil {
		if p, err := c.verifiedPrincipal(ctx, tok.AccessToken); err == nil {
			return p, nil
		}
		// Verification failure falls through to introspection: the key set
		// may have rotated under us.
	}

	var resp principalJSON
	if err := c.do(ctx, requestSpec{method: http.MethodGet, path: "/auth/v1/user", token: tok.AccessToken}, &resp); err != nil {
		return domainauth.Principal{}, err
	}
	return resp.toPrincipal(), nil
}

func (c *Client) verifiedPrincipal(ctx context.Context, accessToken string) (domainauth.Principal, error) {
	idt, err := c.verifier.Verify(c.oauthContext(ctx), accessToken)
	if err != nil {
		return domainauth.Principal{}, fmt.Errorf("verify access token: %w", err)
	}

	var claims struct {
		Subject  string         `json:"sub"`
		Email    string         `json:"email"`
		Metadata map[string]any `json:"user_metadata"`
	}
	if err := idt.Claims(&claims); err != nil {
		return domainauth.Principal{}, fmt.Errorf("decode token claims: %w", err)
	}
	if claims.Subject == "" {
		return domainauth.Principal{}, errors.New("token has no subject claim")
	}
	return domainauth.Principal{ID: claims.Subject, Email: claims.Email, Metadata: claims.Metadata}, nil
}

// Refresh exchanges the refresh token for a fresh access token. The
// provider selects the grant via the query parameter, so this goes through
// the plain JSON surface rather than the oauth2 token source.
func (c *Client) Refresh(ctx context.Context, tok domainauth.Token) (domainauth.Token, error) {
	if tok.RefreshToken == "" {
		return domainauth.Token{}, errors.New("no refresh token held")
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	spec := requestSpec{
		method: http.MethodPost,
		path:   "/auth/v1/token?grant_type=refresh_token",
		body:   map[string]any{"refresh_token": tok.RefreshToken},
	}
	if err := c.do(ctx, spec, &resp); err != nil {
		if apperrors.IsValidation(err) {
			// A 400 here means the refresh token is expired or revoked.
			return domainauth.Token{}, apperrors.Wrap(err, apperrors.ErrCodePermission, "Session can no longer be refreshed")
		}
		return domainauth.Token{}, err
	}
	return domainauth.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

// UpdateMetadata writes opaque profile metadata for the token's principal.
func (c *Client) UpdateMetadata(ctx context.Context, tok domainauth.Token, md map[string]any) (domainauth.Principal, error) {
	var resp principalJSON
	spec := requestSpec{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		token:  tok.AccessToken,
		body:   map[string]any{"data": md},
	}
	if err := c.do(ctx, spec, &resp); err != nil {
		return domainauth.Principal{}, err
	}
	return resp.toPrincipal(), nil
}

// SendPasswordReset asks the provider to mail a reset link.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	spec := requestSpec{method: http.MethodPost, path: "/auth/v1/recover", body: map[string]any{"email": email}}
	return c.do(ctx, spec, nil)
}

// requestSpec groups parameters for do to keep the call sites small.
type requestSpec struct {
	method string
	path   string
	token  string
	body   any
}

func (c *Client) do(ctx context.Context, spec requestSpec, out any) error {
	var bodyReader io.Reader
	if spec.body != nil {
		raw, err := json.Marshal(spec.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, c.baseURL+spec.path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	bearer := spec.token
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "Identity provider unreachable")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			_ = cerr
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return mapStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapStatusError(resp *http.Response) error {
	// Providers return {"error_description": ...} or {"msg": ...}; keep
	// whichever is present but never surface it raw to end users.
	var payload struct {
		Msg         string `json:"msg"`
		Description string `json:"error_description"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)
	detail := payload.Description
	if detail == "" {
		detail = payload.Msg
	}
	cause := fmt.Errorf("identity provider status %d: %s", resp.StatusCode, detail)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Wrap(cause, apperrors.ErrCodePermission, "The identity provider rejected the request")
	case http.StatusNotFound:
		return apperrors.Wrap(cause, apperrors.ErrCodeNotFound, "Account not found")
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return apperrors.Wrap(cause, apperrors.ErrCodeValidation, "The identity provider rejected the input")
	default:
		return apperrors.Wrap(cause, apperrors.ErrCodeUnavailable, "Identity provider error")
	}
}

func mapOAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		code := retrieveErr.Response.StatusCode
		if code == http.StatusBadRequest || code == http.StatusUnauthorized {
			return apperrors.Wrap(err, apperrors.ErrCodePermission, "Invalid email or password")
		}
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "Identity provider unreachable")
}

func fromOAuthToken(ot *oauth2.Token) domainauth.Token {
	return domainauth.Token{
		AccessToken:  ot.AccessToken,
		RefreshToken: ot.RefreshToken,
		ExpiresAt:    ot.Expiry,
	}
}

// principalJSON is the provider's user representation.
type principalJSON struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

func (p principalJSON) toPrincipal() domainauth.Principal {
	return domainauth.Principal{
		ID:        p.ID,
		Email:     p.Email,
		Metadata:  p.Metadata,
		CreatedAt: p.CreatedAt,
	}
}
