package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/cshum/drive-sync/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
)

var providerScopes = map[string][]string{
	"gdrive": {drive.DriveScope},
	"gcs":    {storage.ScopeFullControl},
}

// Providers returns the sorted names of the providers that authenticate
// through OAuth.
func Providers() []string {
	names := make([]string, 0, len(providerScopes))
	for name := range providerScopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScopesFor returns the OAuth scopes a provider needs. Providers that do
// not authenticate through OAuth return an error.
func ScopesFor(provider string) ([]string, error) {
	scopes, ok := providerScopes[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s does not use OAuth credentials", provider)
	}
	return append([]string(nil), scopes...), nil
}

// scopesFor applies the drive_scope setting: "file" narrows gdrive access
// to files created or opened by drivesync, which device login accepts.
func scopesFor(cfg *config.Config, provider string) ([]string, error) {
	scopes, err := ScopesFor(provider)
	if err != nil {
		return nil, err
	}
	if provider == "gdrive" {
		switch v := cfg.GetString("drive_scope", "full"); v {
		case "full":
		case "file":
			scopes = []string{drive.DriveFileScope}
		default:
			return nil, fmt.Errorf("invalid drive_scope %q, expected full or file", v)
		}
	}
	return scopes, nil
}

// Authenticator obtains and caches the credential of one provider.
type Authenticator struct {
	Config   *config.Config
	Provider string
	Scopes   []string
	Method   Method
	Out      io.Writer
	Open     Opener
	Logger   *logrus.Logger

	// OAuthConfig overrides the client secrets file when set.
	OAuthConfig *oauth2.Config
}

func NewAuthenticator(cfg *config.Config, provider string) (*Authenticator, error) {
	scopes, err := scopesFor(cfg, provider)
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		Config:   cfg,
		Provider: provider,
		Scopes:   scopes,
		Method:   MethodLocalServer,
		Out:      os.Stdout,
		Logger:   logrus.StandardLogger(),
	}, nil
}

func (a *Authenticator) oauthConfig() (*oauth2.Config, error) {
	if a.OAuthConfig != nil {
		return a.OAuthConfig, nil
	}
	oc, err := LoadOAuthConfig(a.Config.CredentialsFile(), a.Scopes)
	if err != nil {
		return nil, err
	}
	a.OAuthConfig = oc
	return oc, nil
}

// Login always runs the interactive flow and caches the resulting credential.
func (a *Authenticator) Login(ctx context.Context) (*Credential, error) {
	oc, err := a.oauthConfig()
	if err != nil {
		return nil, err
	}

	var tok *oauth2.Token
	switch a.Method {
	case MethodDevice:
		tok, err = DeviceFlow(ctx, oc, a.Out)
	case MethodLocalServer, "":
		open := a.Open
		if open == nil {
			open = PrintOpener(a.Out)
		}
		tok, err = LocalServerFlow(ctx, oc, open)
	default:
		return nil, fmt.Errorf("unknown login method %q", a.Method)
	}
	if err != nil {
		return nil, err
	}

	cred := FromToken(tok, a.Scopes)
	if err := NewStore(a.Config, a.Provider).Save(cred); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}
	return cred, nil
}

// TokenSource returns a token source backed by the cached credential. A
// missing credential starts the interactive flow; an expired one is
// refreshed. Tokens refreshed later are written back to the cache.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	oc, err := a.oauthConfig()
	if err != nil {
		return nil, err
	}
	store := NewStore(a.Config, a.Provider)

	cred, err := store.Load()
	if err != nil && !errors.Is(err, ErrNoCredentials) {
		return nil, err
	}
	if cred != nil && !cred.HasScopes(a.Scopes) {
		a.Logger.WithField("provider", a.Provider).Info("Cached credentials lack required scopes, logging in again")
		cred = nil
	}

	switch {
	case cred == nil:
		if cred, err = a.Login(ctx); err != nil {
			return nil, err
		}
	case !cred.Valid() && cred.RefreshToken != "":
		a.Logger.WithField("provider", a.Provider).Debug("Refreshing expired access token")
		tok, err := oc.TokenSource(ctx, cred.Token()).Token()
		if err != nil {
			return nil, fmt.Errorf("token refresh failed, run 'drivesync auth login': %w", err)
		}
		refreshed := FromToken(tok, a.Scopes)
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = cred.RefreshToken
		}
		if err := store.Save(refreshed); err != nil {
			return nil, err
		}
		cred = refreshed
	case !cred.Valid():
		if cred, err = a.Login(ctx); err != nil {
			return nil, err
		}
	}

	tok := cred.Token()
	return &persistingTokenSource{
		base:   oauth2.ReuseTokenSource(tok, oc.TokenSource(ctx, tok)),
		store:  store,
		scopes: a.Scopes,
		last:   tok.AccessToken,
		logger: a.Logger,
	}, nil
}

// persistingTokenSource writes every newly issued token back to the store.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  *Store
	scopes []string
	logger *logrus.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(FromToken(tok, s.scopes)); err != nil {
			s.logger.Errorf("Failed to save refreshed token: %v", err)
		}
	}
	return tok, nil
}
