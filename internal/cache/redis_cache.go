package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrUnavailable wraps every I/O failure of the underlying KV store.
var ErrUnavailable = errors.New("kv store unavailable")

// KeepTTL passed to PutCounter preserves the key's current expiry.
const KeepTTL = redis.KeepTTL

const (
	UpdatesChannel = "backoffice_updates"

	ActionContentUpdated = "content_updated"
	ActionQuoteEvent     = "quote_event"

	cachedPrefix    = "cached:"
	cachedCopyTTL   = time.Minute
	defaultTimeout  = 5 * time.Second
	cleanupInterval = 10 * time.Minute
)

// Message travels over the updates channel between instances.
type Message struct {
	Action    string             `json:"action"`
	Key       string             `json:"key,omitempty"`
	Event     *models.QuoteEvent `json:"event,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

// CacheManager is the KV namespace: Redis when reachable, an in-process go-cache otherwise.
type CacheManager struct {
	redisClient *redis.Client
	localCache  *cache.Cache
	pubSub      *redis.PubSub
	timeout     time.Duration
	logger      *zap.Logger

	mu          sync.RWMutex
	subscribers []func(Message)
}

// NewCacheManager connects to redisURL. An empty URL or a failed ping leaves the manager
// running on the local store only.
func NewCacheManager(ctx context.Context, redisURL string, timeout time.Duration, logger *zap.Logger) *CacheManager {
	cm := NewLocalCacheManager(logger)
	if timeout > 0 {
		cm.timeout = timeout
	}
	if redisURL == "" {
		cm.logger.Info("no redis configured, using in-process kv store")
		return cm
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{
			Addr: redisURL,
			DB:   0,
		}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		cm.logger.Error("redis connection failed, using in-process kv store only", zap.Error(err))
		_ = client.Close()
		return cm
	}

	cm.redisClient = client
	cm.pubSub = client.Subscribe(context.Background(), UpdatesChannel)
	go cm.listenForUpdates()

	cm.logger.Info("redis connection established", zap.String("addr", opts.Addr))
	return cm
}

// NewLocalCacheManager returns a manager backed only by the in-process store.
func NewLocalCacheManager(logger *zap.Logger) *CacheManager {
	return &CacheManager{
		localCache: cache.New(cache.NoExpiration, cleanupInterval),
		timeout:    defaultTimeout,
		logger:     logging.OrNop(logger),
	}
}

func (cm *CacheManager) listenForUpdates() {
	if cm.pubSub == nil {
		return
	}

	for msg := range cm.pubSub.Channel() {
		cm.handleUpdateMessage(msg.Payload)
	}
}

func (cm *CacheManager) handleUpdateMessage(payload string) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		cm.logger.Warn("failed to parse update message", zap.Error(err))
		return
	}
	cm.dispatch(msg)
}

func (cm *CacheManager) dispatch(msg Message) {
	if msg.Action == ActionContentUpdated && msg.Key != "" {
		cm.localCache.Delete(cachedPrefix + msg.Key)
	}

	cm.mu.RLock()
	subscribers := append([]func(Message){}, cm.subscribers...)
	cm.mu.RUnlock()

	for _, fn := range subscribers {
		fn(msg)
	}
}

// Subscribe registers fn for every message published by any instance.
func (cm *CacheManager) Subscribe(fn func(Message)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.subscribers = append(cm.subscribers, fn)
}

// Publish sends msg to all instances. Without Redis it is delivered to local subscribers directly.
func (cm *CacheManager) Publish(ctx context.Context, msg Message) error {
	msg.Timestamp = time.Now().Unix()

	if cm.redisClient == nil {
		cm.dispatch(msg)
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal update message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	if err := cm.redisClient.Publish(ctx, UpdatesChannel, data).Err(); err != nil {
		return fmt.Errorf("%w: publish: %v", ErrUnavailable, err)
	}
	return nil
}

// PublishQuoteEvent announces a ledger change to the admin live feed.
func (cm *CacheManager) PublishQuoteEvent(ctx context.Context, event models.QuoteEvent) error {
	return cm.Publish(ctx, Message{Action: ActionQuoteEvent, Event: &event})
}

// Set stores value as JSON. A ttl <= 0 means no expiry.
func (cm *CacheManager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	if cm.redisClient == nil {
		cm.localCache.Set(key, data, localTTL(ttl))
		return nil
	}

	if ttl < 0 {
		ttl = 0
	}

	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	if err := cm.redisClient.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Get decodes the JSON value stored under key into target.
func (cm *CacheManager) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	data, found, err := cm.getBytes(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// GetCached is Get with a short-lived local copy in front of Redis. Copies are dropped
// when any instance announces a content_updated message for the key.
func (cm *CacheManager) GetCached(ctx context.Context, key string, target interface{}) (bool, error) {
	if cm.redisClient == nil {
		return cm.Get(ctx, key, target)
	}

	if val, found := cm.localCache.Get(cachedPrefix + key); found {
		if data, ok := val.([]byte); ok {
			return true, json.Unmarshal(data, target)
		}
	}

	data, found, err := cm.getBytes(ctx, key)
	if err != nil || !found {
		return false, err
	}
	cm.localCache.Set(cachedPrefix+key, data, cachedCopyTTL)

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (cm *CacheManager) getBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if cm.redisClient == nil {
		val, found := cm.localCache.Get(key)
		if !found {
			return nil, false, nil
		}
		data, ok := val.([]byte)
		if !ok {
			return nil, false, fmt.Errorf("decode %q: unexpected local value %T", key, val)
		}
		return data, true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	data, err := cm.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %v", ErrUnavailable, key, err)
	}
	return data, true, nil
}

// Delete removes key and any local copy of it.
func (cm *CacheManager) Delete(ctx context.Context, key string) error {
	cm.localCache.Delete(key)
	cm.localCache.Delete(cachedPrefix + key)

	if cm.redisClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	if err := cm.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

// GetCounter reads an integer counter. found is false when the key is absent or expired.
func (cm *CacheManager) GetCounter(ctx context.Context, key string) (int64, bool, error) {
	if cm.redisClient == nil {
		val, found := cm.localCache.Get(key)
		if !found {
			return 0, false, nil
		}
		n, ok := val.(int64)
		if !ok {
			return 0, false, fmt.Errorf("counter %q holds %T", key, val)
		}
		return n, true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	n, err := cm.redisClient.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("%w: get counter %q: %v", ErrUnavailable, key, err)
	}
	return n, true, nil
}

// PutCounter writes a counter value. With ttl == KeepTTL the current expiry is kept and
// nothing is written if the key has meanwhile expired, so a window never becomes permanent.
func (cm *CacheManager) PutCounter(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if cm.redisClient == nil {
		if ttl != KeepTTL {
			cm.localCache.Set(key, value, localTTL(ttl))
			return nil
		}
		_, expiresAt, found := cm.localCache.GetWithExpiration(key)
		if !found {
			return nil
		}
		remaining := cache.NoExpiration
		if !expiresAt.IsZero() {
			remaining = time.Until(expiresAt)
			if remaining <= 0 {
				return nil
			}
		}
		cm.localCache.Set(key, value, remaining)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	var err error
	if ttl == KeepTTL {
		err = cm.redisClient.SetXX(ctx, key, value, KeepTTL).Err()
	} else {
		if ttl < 0 {
			ttl = 0
		}
		err = cm.redisClient.Set(ctx, key, value, ttl).Err()
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: put counter %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

// DeleteCounter clears a counter immediately.
func (cm *CacheManager) DeleteCounter(ctx context.Context, key string) error {
	return cm.Delete(ctx, key)
}

// Ping reports whether the backing store answers.
func (cm *CacheManager) Ping(ctx context.Context) error {
	if cm.redisClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()
	if err := cm.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

func (cm *CacheManager) IsAvailable() bool {
	return cm.redisClient != nil
}

// Close stops the subscription and the Redis client.
func (cm *CacheManager) Close() error {
	if cm.pubSub != nil {
		_ = cm.pubSub.Close()
	}
	if cm.redisClient != nil {
		return cm.redisClient.Close()
	}
	return nil
}

func localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return cache.NoExpiration
	}
	return ttl
}
