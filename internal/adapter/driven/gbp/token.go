package gbp

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/brandops/brandpanel/internal/domain/model"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	jwtBearerGrant  = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// tokenSkew is how early a cached access token is considered expired.
	// Refreshing at or before expiry, never after, keeps in-flight requests
	// from racing the vendor's clock.
	tokenSkew = 30 * time.Second

	// assertionLifetime is the validity window of a minted service assertion.
	assertionLifetime = time.Hour
)

// defaultScopes is requested when the credential carries none.
var defaultScopes = []string{"https://www.googleapis.com/auth/business.manage"}

// tokenSource supplies the current bearer token for a credential, refreshing
// lazily. Refreshes are single-flight: concurrent callers that observe an
// expired token share one exchange instead of minting competing tokens, which
// some providers treat as invalidating the previous one.
//
// The only mutable state is the credential's access token and expiry; the
// refresh capability (refresh token or signing key) is never replaced.
type tokenSource struct {
	httpClient *http.Client
	tokenURL   string
	now        func() time.Time

	// sign is selected once at construction by credential kind; the hot path
	// never inspects the kind to pick a signing routine.
	sign func(cred model.Credential) (string, error)

	mu      sync.Mutex
	cred    model.Credential
	onToken func(accessToken string, expiry time.Time)

	sf singleflight.Group
}

// newTokenSource validates the credential and prepares the signing routine
// for its kind. For a service identity the PEM key is parsed here, once.
func newTokenSource(cred model.Credential, httpClient *http.Client, tokenURL string) (*tokenSource, error) {
	s := &tokenSource{
		httpClient: httpClient,
		tokenURL:   tokenURL,
		now:        time.Now,
		cred:       cred,
	}

	switch cred.Kind {
	case model.CredentialDelegated:
		// Nothing to prepare; the refresh grant needs only the stored fields.
	case model.CredentialServiceIdentity:
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cred.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parsing service identity signing key: %w", err)
		}
		s.sign = assertionSigner(key)
		if s.tokenURL == "" {
			s.tokenURL = cred.TokenURI
		}
	default:
		return nil, fmt.Errorf("unknown credential kind %q", cred.Kind)
	}

	if s.tokenURL == "" {
		s.tokenURL = defaultTokenURL
	}
	return s, nil
}

// setOnToken registers a hook invoked after every successful refresh, e.g. to
// persist the new access token.
func (s *tokenSource) setOnToken(fn func(accessToken string, expiry time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onToken = fn
}

// Token returns a live bearer token, refreshing first when the cached one is
// missing or within tokenSkew of expiry.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.current(); ok {
		return tok, nil
	}
	return s.refresh(ctx, false)
}

// ForceRefresh discards the cached access token and performs a refresh even
// if the cache looks live. Used after the vendor rejects a token as expired.
func (s *tokenSource) ForceRefresh(ctx context.Context) (string, error) {
	return s.refresh(ctx, true)
}

// current returns the cached access token when it is present and not near
// expiry. A zero expiry means the token's lifetime is unknown; it is used
// until the vendor rejects it.
func (s *tokenSource) current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred.AccessToken == "" {
		return "", false
	}
	if !s.cred.Expiry.IsZero() && !s.now().Add(tokenSkew).Before(s.cred.Expiry) {
		return "", false
	}
	return s.cred.AccessToken, true
}

// refresh performs a single-flight token exchange. Concurrent callers await
// the same result. The stored refresh capability is left untouched on both
// success and failure.
func (s *tokenSource) refresh(ctx context.Context, force bool) (string, error) {
	v, err, _ := s.sf.Do("token", func() (any, error) {
		// A caller that queued behind a completed refresh finds the fresh
		// token here and skips a second exchange.
		if !force {
			if tok, ok := s.current(); ok {
				return tok, nil
			}
		}

		s.mu.Lock()
		cred := s.cred
		s.mu.Unlock()

		tok, expiry, exchangeErr := s.exchange(ctx, cred)
		if exchangeErr != nil {
			return nil, exchangeErr
		}

		s.mu.Lock()
		s.cred.AccessToken = tok
		s.cred.Expiry = expiry
		hook := s.onToken
		s.mu.Unlock()

		if hook != nil {
			hook(tok, expiry)
		}
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange selects the grant by credential kind and performs it. A delegated
// credential with no refresh token cannot authenticate at all and fails with
// AuthUnavailable before any HTTP call; any rejection of an actual exchange
// is AuthExpired, signaling that re-authorization rather than retry is
// required.
func (s *tokenSource) exchange(ctx context.Context, cred model.Credential) (string, time.Time, error) {
	switch cred.Kind {
	case model.CredentialDelegated:
		if cred.RefreshToken == "" {
			return "", time.Time{}, &model.ClientError{
				Kind:      model.KindAuthUnavailable,
				Operation: "oauth-token",
				Message:   "no live access token and no refresh capability",
			}
		}
		return s.post(ctx, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {cred.RefreshToken},
			"client_id":     {cred.ClientID},
			"client_secret": {cred.ClientSecret},
		})

	case model.CredentialServiceIdentity:
		assertion, err := s.sign(cred)
		if err != nil {
			return "", time.Time{}, &model.ClientError{
				Kind:      model.KindAuthExpired,
				Operation: "oauth-token",
				Message:   "signing service assertion",
				Err:       err,
			}
		}
		return s.post(ctx, url.Values{
			"grant_type": {jwtBearerGrant},
			"assertion":  {assertion},
		})

	default:
		return "", time.Time{}, &model.ClientError{
			Kind:      model.KindAuthUnavailable,
			Operation: "oauth-token",
			Message:   fmt.Sprintf("unknown credential kind %q", cred.Kind),
		}
	}
}

// tokenResponse is the vendor token endpoint's success payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// post submits the grant to the token endpoint. This operation is never
// retried here; the caller decides what an AuthExpired failure means.
func (s *tokenSource) post(ctx context.Context, form url.Values) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, &model.ClientError{
			Kind:      model.KindAuthExpired,
			Operation: "oauth-token",
			Message:   "token endpoint unreachable",
			Err:       err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", time.Time{}, &model.ClientError{
			Kind:      model.KindAuthExpired,
			Operation: "oauth-token",
			Message:   "reading token response",
			Err:       err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, &model.ClientError{
			Kind:      model.KindAuthExpired,
			Operation: "oauth-token",
			Status:    resp.StatusCode,
			Message:   vendorMessage(body),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", time.Time{}, &model.ClientError{
			Kind:      model.KindAuthExpired,
			Operation: "oauth-token",
			Status:    resp.StatusCode,
			Message:   "token response missing access_token",
			Err:       err,
		}
	}

	expiry := time.Time{}
	if tr.ExpiresIn > 0 {
		expiry = s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tr.AccessToken, expiry, nil
}

// assertionSigner returns the static signing routine for a service identity.
func assertionSigner(key *rsa.PrivateKey) func(cred model.Credential) (string, error) {
	return func(cred model.Credential) (string, error) {
		scopes := cred.Scopes
		if len(scopes) == 0 {
			scopes = defaultScopes
		}
		audience := cred.TokenURI
		if audience == "" {
			audience = defaultTokenURL
		}

		now := time.Now()
		claims := jwt.MapClaims{
			"iss":   cred.Issuer,
			"scope": strings.Join(scopes, " "),
			"aud":   audience,
			"iat":   now.Unix(),
			"exp":   now.Add(assertionLifetime).Unix(),
		}
		return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	}
}
