package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const contentPrefix = "content:"

// ContentStore holds the named JSON blobs edited from the admin UI.
type ContentStore struct {
	kv *CacheManager
}

func NewContentStore(kv *CacheManager) *ContentStore {
	return &ContentStore{kv: kv}
}

// Get returns the blob stored under key, or found=false.
func (s *ContentStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var blob json.RawMessage
	found, err := s.kv.GetCached(ctx, contentPrefix+key, &blob)
	if err != nil {
		return nil, false, fmt.Errorf("load content %q: %w", key, err)
	}
	return blob, found, nil
}

// Put replaces the blob and tells other instances to drop their local copies.
func (s *ContentStore) Put(ctx context.Context, key string, blob json.RawMessage) error {
	if err := s.kv.Set(ctx, contentPrefix+key, blob, 0); err != nil {
		return fmt.Errorf("store content %q: %w", key, err)
	}
	if err := s.kv.Publish(ctx, Message{Action: ActionContentUpdated, Key: contentPrefix + key}); err != nil {
		s.kv.logger.Warn("content invalidation not published", zap.String("key", key), zap.Error(err))
	}
	return nil
}
