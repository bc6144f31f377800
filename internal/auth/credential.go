package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cshum/drive-sync/internal/config"
	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned when no credential is cached for a provider.
var ErrNoCredentials = errors.New("no cached credentials")

// expiryDelta matches the early-expiry window oauth2 applies to tokens.
const expiryDelta = 10 * time.Second

// Credential is the persisted form of an OAuth2 token.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// FromToken converts tok, recording scopes when the token response did not
// carry a scope of its own.
func FromToken(tok *oauth2.Token, scopes []string) *Credential {
	scope, _ := tok.Extra("scope").(string)
	if scope == "" {
		scope = strings.Join(scopes, " ")
	}
	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        scope,
		Expiry:       tok.Expiry,
	}
}

func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

func (c *Credential) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && c.Expiry.Add(-expiryDelta).Before(now)
}

func (c *Credential) Valid() bool {
	return c != nil && c.AccessToken != "" && !c.Expired(time.Now())
}

// HasScopes reports whether every scope in scopes was granted.
func (c *Credential) HasScopes(scopes []string) bool {
	granted := strings.Fields(c.Scope)
	for _, want := range scopes {
		found := false
		for _, g := range granted {
			if g == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store persists the credential of one provider through the config dir.
type Store struct {
	cfg      *config.Config
	provider string
}

func NewStore(cfg *config.Config, provider string) *Store {
	return &Store{cfg: cfg, provider: provider}
}

func (s *Store) Load() (*Credential, error) {
	data, err := s.cfg.ReadToken(s.provider)
	if errors.Is(err, config.ErrNotSet) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.cfg.TokenPath(s.provider), err)
	}
	return &cred, nil
}

func (s *Store) Save(cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	return s.cfg.WriteToken(s.provider, data)
}
