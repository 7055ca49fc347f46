package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultRedirectURL is the loopback redirect registered for desktop clients.
// The auth command asks the user to paste the code from the redirected URL.
const DefaultRedirectURL = "http://localhost"

// Scopes are the OAuth scopes the scheduler requests. Only the calendar is
// touched.
var Scopes = []string{
	calendar.CalendarScope,
}

var accountName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrNoToken is returned when no token is stored for an account.
var ErrNoToken = errors.New("no Google OAuth token")

// NewOAuthConfig returns the OAuth2 configuration for the calendar scopes.
func NewOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("google client id and secret are required")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  DefaultRedirectURL,
		Scopes:       Scopes,
	}, nil
}

// AuthURL returns the consent URL. Offline access is requested so that a
// refresh token is issued.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// NewHTTPClient returns an HTTP client authorized for account. Refreshed
// tokens are written back when the provider can store them.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, provider TokenProvider, account string) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	tok, err := provider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	var ts oauth2.TokenSource = conf.TokenSource(ctx, tok)
	if saver, ok := provider.(TokenSaver); ok {
		ts = &savingTokenSource{base: ts, saver: saver, account: account, last: tok.AccessToken}
	}

	// HTTP/2 connections to the Calendar API are occasionally reset mid
	// request; stick to HTTP/1.1
	base := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(tok, ts),
			Base:   base,
		},
	}, nil
}

// AuthenticationErrorMessage explains how to obtain a token for account.
func AuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google OAuth token missing for account %q. Run `scheduler auth --account %s` to authorize calendar access.", account, account)
}

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountName.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

type savingTokenSource struct {
	base    oauth2.TokenSource
	saver   TokenSaver
	account string
	last    string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// a failed write only costs a refresh on the next start
		_ = s.saver.SaveTokenForAccount(s.account, tok)
	}
	return tok, nil
}
