// Package credentials persists the single access credential of the client.
//
// The token is kept under one well-known key in the local metadata table so
// it survives process restarts. It is not encrypted and its expiry is not
// checked; the server is the authority on validity.
package credentials

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophchat/internal/common"
)

// Reader is the read-only view handed to every component that needs to
// attach the credential to outbound requests.
type Reader interface {
	// Token returns the stored token, or "" when none is stored.
	Token(ctx context.Context) (string, error)
}

// Store is the writable credential store. Only the auth service holds it.
type Store interface {
	Reader
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type metadataStore struct {
	repo metadata.Repository
	key  string
}

// NewStore returns a Store that keeps the token in repo under
// common.CredentialKey.
func NewStore(repo metadata.Repository) Store {
	return &metadataStore{repo: repo, key: common.CredentialKey}
}

func (s *metadataStore) Token(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return string(v), nil
}

// Set replaces the stored token. An empty token is rejected; use Clear.
func (s *metadataStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrEmptyCredential
	}
	if err := s.repo.Set(ctx, s.key, []byte(token)); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Clear removes the token. Clearing an empty store is not an error.
func (s *metadataStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
