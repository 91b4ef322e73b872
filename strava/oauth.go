package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultOAuthBaseURL = "https://www.strava.com/oauth"

	// defaultExpiryBuffer refreshes tokens this long before they actually
	// expire, so a token is never handed out mid-flight with seconds left.
	defaultExpiryBuffer = 300 * time.Second
)

// ApprovalPrompt controls whether the authorization page re-prompts a user
// who has already authorized the application.
type ApprovalPrompt string

const (
	ApprovalPromptAuto  ApprovalPrompt = "auto"
	ApprovalPromptForce ApprovalPrompt = "force"
)

// OAuthConfig configures an OAuthManager.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Store persists tokens across runs. Defaults to an in-memory store.
	Store TokenStore
	// ExpiryBuffer is how long before actual expiry a token is considered
	// expired. Defaults to 5 minutes.
	ExpiryBuffer time.Duration
	// HTTPClient performs the token endpoint requests.
	HTTPClient *http.Client
	// BaseURL overrides the OAuth endpoint base, for testing.
	BaseURL string
	Logger  *zap.Logger
}

// OAuthManager owns the OAuth token lifecycle: the authorization URL, the
// code exchange, transparent refresh ahead of expiry, and deauthorization.
// It is safe for concurrent use; concurrent callers seeing an expired token
// trigger exactly one refresh.
type OAuthManager struct {
	clientID     string
	clientSecret string
	redirectURI  string
	store        TokenStore
	buffer       time.Duration
	httpClient   *http.Client
	baseURL      string
	log          *zap.Logger

	// refreshMu serializes refreshes. Callers re-read the store after
	// acquiring it, so waiters behind a completed refresh reuse its result.
	refreshMu sync.Mutex
}

// NewOAuthManager validates the config and returns a manager.
func NewOAuthManager(cfg OAuthConfig) (*OAuthManager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("strava: oauth client id and secret are required")
	}
	m := &OAuthManager{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		store:        cfg.Store,
		buffer:       cfg.ExpiryBuffer,
		httpClient:   cfg.HTTPClient,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		log:          cfg.Logger,
	}
	if m.store == nil {
		m.store = NewMemoryTokenStore(nil)
	}
	if m.buffer <= 0 {
		m.buffer = defaultExpiryBuffer
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if m.baseURL == "" {
		m.baseURL = defaultOAuthBaseURL
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m, nil
}

// Store returns the token store backing this manager.
func (m *OAuthManager) Store() TokenStore {
	return m.store
}

// String implements fmt.Stringer with the client secret redacted.
func (m *OAuthManager) String() string {
	return fmt.Sprintf("strava.OAuthManager{clientID:%s clientSecret:<REDACTED>}", m.clientID)
}

// GoString implements fmt.GoStringer, covering the %#v verb the same way.
func (m *OAuthManager) GoString() string {
	return m.String()
}

// AuthorizationURL builds the URL to send a user to for authorization. An
// empty scope list requests the minimal "read" scope; unknown scopes are
// rejected.
func (m *OAuthManager) AuthorizationURL(scopes []Scope, state string, prompt ApprovalPrompt) (string, error) {
	joined, err := joinScopes(scopes)
	if err != nil {
		return "", err
	}
	switch prompt {
	case "":
		prompt = ApprovalPromptAuto
	case ApprovalPromptAuto, ApprovalPromptForce:
	default:
		return "", fmt.Errorf("strava: invalid approval prompt %q", prompt)
	}

	v := url.Values{}
	v.Set("client_id", m.clientID)
	v.Set("redirect_uri", m.redirectURI)
	v.Set("response_type", "code")
	v.Set("approval_prompt", string(prompt))
	v.Set("scope", joined)
	if state != "" {
		v.Set("state", state)
	}
	return m.baseURL + "/authorize?" + v.Encode(), nil
}

// tokenResponse is the wire form of the token endpoint's response.
type tokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	Athlete      *struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

// ExchangeCode trades an authorization code for a token and persists it.
func (m *OAuthManager) ExchangeCode(ctx context.Context, code string) (*TokenRecord, error) {
	if code == "" {
		return nil, errors.New("strava: authorization code is empty")
	}
	form := url.Values{}
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")

	rec, err := m.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, rec); err != nil {
		return nil, fmt.Errorf("strava: persisting token: %w", err)
	}
	m.log.Debug("authorization code exchanged", zap.Int64("athlete_id", rec.AthleteID))
	return rec, nil
}

// GetValidToken returns a token that is valid for at least the expiry buffer,
// refreshing it first when needed. With no stored token it fails fast with an
// AuthError, it never attempts the network.
func (m *OAuthManager) GetValidToken(ctx context.Context) (*TokenRecord, error) {
	rec, err := m.getStored(ctx)
	if err != nil {
		return nil, err
	}
	if !rec.ExpiresWithin(m.buffer) {
		return rec, nil
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Re-read under the lock: a refresh that completed while we waited
	// already stored a fresh token.
	rec, err = m.getStored(ctx)
	if err != nil {
		return nil, err
	}
	if !rec.ExpiresWithin(m.buffer) {
		return rec, nil
	}
	return m.refreshLocked(ctx, rec)
}

// RefreshNow forces a refresh regardless of the stored token's expiry.
func (m *OAuthManager) RefreshNow(ctx context.Context) (*TokenRecord, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	rec, err := m.getStored(ctx)
	if err != nil {
		return nil, err
	}
	return m.refreshLocked(ctx, rec)
}

// Deauthorize revokes the stored access token and clears the store.
func (m *OAuthManager) Deauthorize(ctx context.Context) error {
	rec, err := m.getStored(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("access_token", rec.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/deauthorize", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("strava: building deauthorize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("strava: deauthorize request failed: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return mapHTTPError(resp, body)
	}

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("strava: clearing token store: %w", err)
	}
	m.log.Debug("application deauthorized")
	return nil
}

// getStored fetches the token record, mapping an empty store to the
// fail-fast authentication error.
func (m *OAuthManager) getStored(ctx context.Context) (*TokenRecord, error) {
	rec, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, &AuthError{Message: "authorization required", Err: ErrNotAuthenticated}
		}
		return nil, fmt.Errorf("strava: reading token store: %w", err)
	}
	return rec, nil
}

// refreshLocked performs a refresh grant for the given record. Callers must
// hold refreshMu. On failure the store is cleared so later calls fail fast
// instead of hammering the token endpoint with a dead refresh token.
func (m *OAuthManager) refreshLocked(ctx context.Context, current *TokenRecord) (*TokenRecord, error) {
	if current.RefreshToken == "" {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Debug("token store clear failed", zap.Error(err))
		}
		return nil, &AuthError{Message: "no refresh token available", Err: ErrNotAuthenticated}
	}

	form := url.Values{}
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", current.RefreshToken)

	rec, err := m.tokenRequest(ctx, form)
	if err != nil {
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Debug("token store clear failed", zap.Error(cerr))
		} else {
			m.log.Debug("token store cleared after refresh failure")
		}
		return nil, err
	}

	// The refresh response does not repeat immutable grant attributes;
	// carry them forward from the record being replaced.
	if rec.RefreshToken == "" {
		rec.RefreshToken = current.RefreshToken
	}
	if rec.Scope == "" {
		rec.Scope = current.Scope
	}
	if rec.AthleteID == 0 {
		rec.AthleteID = current.AthleteID
	}

	if err := m.store.Set(ctx, rec); err != nil {
		return nil, fmt.Errorf("strava: persisting refreshed token: %w", err)
	}
	m.log.Debug("access token refreshed", zap.Int64("expires_at", rec.ExpiresAt))
	return rec, nil
}

// tokenRequest POSTs a form to the token endpoint and decodes the response.
// All failures come back as AuthError so callers see one error type for the
// whole token lifecycle.
func (m *OAuthManager) tokenRequest(ctx context.Context, form url.Values) (*TokenRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("strava: building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Message: "token request failed", Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &AuthError{Message: "reading token response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		mapped := mapHTTPError(resp, body)
		var ae *AuthError
		if errors.As(mapped, &ae) {
			return nil, mapped
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "token request rejected", Err: mapped}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &AuthError{Message: "decoding token response", Err: err}
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{Message: "token response missing access token"}
	}

	rec := &TokenRecord{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    tr.ExpiresAt,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
	}
	if rec.ExpiresAt == 0 && tr.ExpiresIn > 0 {
		rec.ExpiresAt = time.Now().Unix() + tr.ExpiresIn
	}
	if tr.Athlete != nil {
		rec.AthleteID = tr.Athlete.ID
	}
	return rec, nil
}
