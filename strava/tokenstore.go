package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// ErrNoToken is returned by TokenStore.Get when no token has been stored.
var ErrNoToken = errors.New("strava: no token stored")

// TokenRecord is the persisted form of an OAuth token grant.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the access token expiry as a Unix timestamp in seconds.
	ExpiresAt int64  `json:"expires_at"`
	TokenType string `json:"token_type,omitempty"`
	Scope     string `json:"scope,omitempty"`
	AthleteID int64  `json:"athlete_id,omitempty"`
}

// ExpiresWithin reports whether the access token expires within the given
// buffer from now.
func (t *TokenRecord) ExpiresWithin(buffer time.Duration) bool {
	return time.Now().Add(buffer).Unix() >= t.ExpiresAt
}

// clone returns an independent copy so stores never hand out aliased records.
func (t *TokenRecord) clone() *TokenRecord {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TokenStore persists OAuth tokens between runs. Implementations must be safe
// for concurrent use.
type TokenStore interface {
	// Get returns the stored token, or ErrNoToken when none exists.
	Get(ctx context.Context) (*TokenRecord, error)
	// Set stores the token, replacing any previous one.
	Set(ctx context.Context, rec *TokenRecord) error
	// Clear removes the stored token. Clearing an empty store is not an
	// error.
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the token in process memory. It is the right choice
// for tests and short-lived programs.
type MemoryTokenStore struct {
	mu  sync.Mutex
	rec *TokenRecord
}

// NewMemoryTokenStore returns an empty in-memory store. A non-nil seed
// pre-populates it.
func NewMemoryTokenStore(seed *TokenRecord) *MemoryTokenStore {
	return &MemoryTokenStore{rec: seed.clone()}
}

// Get implements TokenStore.
func (s *MemoryTokenStore) Get(ctx context.Context) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, ErrNoToken
	}
	return s.rec.clone(), nil
}

// Set implements TokenStore.
func (s *MemoryTokenStore) Set(ctx context.Context, rec *TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec.clone()
	return nil
}

// Clear implements TokenStore.
func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}

// FileTokenStore persists the token as a JSON file readable only by the
// owner.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore returns a store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Get implements TokenStore.
func (s *FileTokenStore) Get(ctx context.Context) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("strava: reading token file: %w", err)
	}
	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("strava: parsing token file: %w", err)
	}
	return &rec, nil
}

// Set implements TokenStore.
func (s *FileTokenStore) Set(ctx context.Context, rec *TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("strava: encoding token: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("strava: creating token directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("strava: writing token file: %w", err)
	}
	return nil
}

// Clear implements TokenStore.
func (s *FileTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("strava: removing token file: %w", err)
	}
	return nil
}

// EnvTokenStore seeds a token from STRAVA_ACCESS_TOKEN, STRAVA_REFRESH_TOKEN
// and STRAVA_TOKEN_EXPIRES_AT. Updates stay in memory; the environment is
// never written back.
type EnvTokenStore struct {
	mem MemoryTokenStore
}

// NewEnvTokenStore builds a store from the environment. The returned store is
// empty when STRAVA_ACCESS_TOKEN is unset.
func NewEnvTokenStore() *EnvTokenStore {
	s := &EnvTokenStore{}
	access := os.Getenv("STRAVA_ACCESS_TOKEN")
	if access == "" {
		return s
	}
	rec := &TokenRecord{
		AccessToken:  access,
		RefreshToken: os.Getenv("STRAVA_REFRESH_TOKEN"),
	}
	if v := os.Getenv("STRAVA_TOKEN_EXPIRES_AT"); v != "" {
		if exp, err := strconv.ParseInt(v, 10, 64); err == nil {
			rec.ExpiresAt = exp
		}
	}
	s.mem.rec = rec
	return s
}

// Get implements TokenStore.
func (s *EnvTokenStore) Get(ctx context.Context) (*TokenRecord, error) {
	return s.mem.Get(ctx)
}

// Set implements TokenStore.
func (s *EnvTokenStore) Set(ctx context.Context, rec *TokenRecord) error {
	return s.mem.Set(ctx, rec)
}

// Clear implements TokenStore.
func (s *EnvTokenStore) Clear(ctx context.Context) error {
	return s.mem.Clear(ctx)
}

// TokenStoreEnvironment selects a default token store.
type TokenStoreEnvironment struct {
	// TokenDir overrides the directory holding the token file. Empty uses
	// ~/.strava.
	TokenDir string
	// Seed, when non-nil, selects an in-memory store pre-populated with this
	// record.
	Seed *TokenRecord
}

// NewDefaultTokenStore picks a sensible store for the environment: a seeded
// memory store when Seed is set, an environment-backed store when
// STRAVA_ACCESS_TOKEN is present, and a file store under TokenDir (or
// ~/.strava) otherwise.
func NewDefaultTokenStore(env TokenStoreEnvironment) (TokenStore, error) {
	if env.Seed != nil {
		return NewMemoryTokenStore(env.Seed), nil
	}
	if os.Getenv("STRAVA_ACCESS_TOKEN") != "" {
		return NewEnvTokenStore(), nil
	}
	dir := env.TokenDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("strava: resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".strava")
	}
	return NewFileTokenStore(filepath.Join(dir, "token.json")), nil
}
