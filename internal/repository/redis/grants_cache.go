package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
)

// GrantCache caches expanded grant maps in Redis. Entries are invalidated on
// every write for the same user, so the TTL only bounds staleness after a
// missed invalidation.
type GrantCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

type cachedGrants struct {
	UserID   string          `json:"user_id"`
	Grants   domain.GrantSet `json:"grants"`
	Revision int64           `json:"revision"`
}

// NewGrantCache constructs a Redis-backed grant cache.
func NewGrantCache(client *redis.Client, keyPrefix string, ttl time.Duration) *GrantCache {
	if keyPrefix == "" {
		keyPrefix = "access:grants"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &GrantCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *GrantCache) key(userID string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, userID)
}

// Get returns the cached grants for userID, or nil on a miss.
func (c *GrantCache) Get(ctx context.Context, userID string) (*domain.UserGrants, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached grants: %w", err)
	}

	var entry cachedGrants
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cached grants: %w", err)
	}

	return &domain.UserGrants{
		UserID:   entry.UserID,
		Grants:   entry.Grants,
		Revision: entry.Revision,
	}, nil
}

// Set stores the grants for the entry's user.
func (c *GrantCache) Set(ctx context.Context, grants domain.UserGrants) error {
	raw, err := json.Marshal(cachedGrants{
		UserID:   grants.UserID,
		Grants:   grants.Grants,
		Revision: grants.Revision,
	})
	if err != nil {
		return fmt.Errorf("encode cached grants: %w", err)
	}

	if err := c.client.Set(ctx, c.key(grants.UserID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached grants: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for userID.
func (c *GrantCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached grants: %w", err)
	}
	return nil
}

var _ port.GrantCache = (*GrantCache)(nil)
