// Package googleauth verifies Google sign-in credentials against Google's
// public endpoints. It is the only component that talks to Google; the
// rest of the system consumes the verified identity it returns.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/infrastructure/config"
)

const (
	tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	tokenURL     = "https://oauth2.googleapis.com/token"
)

// ErrProviderUnavailable signals a transient failure talking to Google
// (timeout, connection refused, 5xx). Callers map it to 503 so clients
// know to retry; it never means the credential was bad.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// ErrInvalidCredential signals that Google rejected the credential
var ErrInvalidCredential = errors.New("invalid google credential")

// Verifier validates Google ID tokens and exchanges authorization codes
type Verifier interface {
	// VerifyIDToken validates a Google ID token and returns the identity
	// it asserts.
	VerifyIDToken(ctx context.Context, idToken string) (*identity.ExternalIdentity, error)

	// ExchangeCode exchanges an authorization code for an ID token and
	// verifies it.
	ExchangeCode(ctx context.Context, code string) (*identity.ExternalIdentity, error)
}

// HTTPVerifier implements Verifier against Google's OAuth2 endpoints
type HTTPVerifier struct {
	config     config.GoogleConfig
	httpClient *http.Client
}

// NewHTTPVerifier creates a verifier with a bounded-timeout HTTP client
func NewHTTPVerifier(cfg config.GoogleConfig) *HTTPVerifier {
	return &HTTPVerifier{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// tokenInfoResponse is the subset of Google's tokeninfo payload we use
type tokenInfoResponse struct {
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyIDToken validates an ID token via the tokeninfo endpoint
func (v *HTTPVerifier) VerifyIDToken(ctx context.Context, idToken string) (*identity.ExternalIdentity, error) {
	endpoint := tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("google: failed to build request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ErrProviderUnavailable
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, ErrProviderUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, ErrInvalidCredential
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("google: failed to parse tokeninfo response: %w", err)
	}

	if info.Audience != v.config.ClientID {
		return nil, ErrInvalidCredential
	}
	if info.Subject == "" || info.Email == "" {
		return nil, ErrInvalidCredential
	}

	return &identity.ExternalIdentity{
		Subject:       info.Subject,
		Email:         identity.NormalizeEmail(info.Email),
		EmailVerified: info.EmailVerified == "true",
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}

// ExchangeCode exchanges an authorization code for tokens, then verifies
// the returned ID token.
func (v *HTTPVerifier) ExchangeCode(ctx context.Context, code string) (*identity.ExternalIdentity, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {v.config.ClientID},
		"client_secret": {v.config.ClientSecret},
		"redirect_uri":  {v.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("google: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ErrProviderUnavailable
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, ErrProviderUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, ErrInvalidCredential
	}

	var tokens struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("google: failed to parse token response: %w", err)
	}
	if tokens.IDToken == "" {
		return nil, ErrInvalidCredential
	}

	return v.VerifyIDToken(ctx, tokens.IDToken)
}

// classifyTransportError maps network-level failures to ErrProviderUnavailable
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrProviderUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrProviderUnavailable
	}
	return fmt.Errorf("google: request failed: %w", err)
}

var _ Verifier = (*HTTPVerifier)(nil)
