package cache

import (
	"context"
	"fmt"

	"apparel-backoffice/internal/models"
)

const credentialKey = "admin:credentials"

// CredentialStore keeps the single admin credential record in the KV namespace.
type CredentialStore struct {
	kv *CacheManager
}

func NewCredentialStore(kv *CacheManager) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Get returns (nil, nil) when no credentials have been set up yet.
func (s *CredentialStore) Get(ctx context.Context) (*models.Credential, error) {
	var cred models.Credential
	found, err := s.kv.Get(ctx, credentialKey, &cred)
	if err != nil {
		return nil, fmt.Errorf("load admin credentials: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &cred, nil
}

// Put overwrites the record. Last write wins.
func (s *CredentialStore) Put(ctx context.Context, cred models.Credential) error {
	if err := s.kv.Set(ctx, credentialKey, cred, 0); err != nil {
		return fmt.Errorf("store admin credentials: %w", err)
	}
	return nil
}
