package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// TokenSaver is implemented by providers that can persist tokens.
type TokenSaver interface {
	SaveTokenForAccount(account string, tok *oauth2.Token) error
}

// FileTokenProvider stores one JSON token file per account in a directory.
type FileTokenProvider struct {
	dir string
}

// NewFileTokenProvider returns a provider rooted at dir. An empty dir selects
// DefaultTokenDir.
func NewFileTokenProvider(dir string) *FileTokenProvider {
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &FileTokenProvider{dir: dir}
}

// DefaultTokenDir is <user cache dir>/scheduler.
func DefaultTokenDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "scheduler")
}

// TokenPath returns the token file for account.
func (p *FileTokenProvider) TokenPath(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	return filepath.Join(p.dir, "google-"+account+".token"), nil
}

// GetTokenForAccount reads the token stored for account.
func (p *FileTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	path, err := p.TokenPath(account)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", path)
	}
	return &tok, nil
}

// HasTokenForAccount checks if a token file exists for the specified account
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	path, err := p.TokenPath(account)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// SaveTokenForAccount writes tok for account, readable only by the owner.
func (p *FileTokenProvider) SaveTokenForAccount(account string, tok *oauth2.Token) error {
	path, err := p.TokenPath(account)
	if err != nil {
		return err
	}
	if tok == nil {
		return fmt.Errorf("token cannot be nil")
	}

	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
