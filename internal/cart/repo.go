package cart

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	pkgredis "github.com/angelmondragon/rattanstore-backend/pkg/redis"
)

// Repository loads and saves a cart per storefront session.
type Repository interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

type redisRepository struct {
	store kvStore
	ttl   time.Duration
}

// NewRedisRepository stores carts as JSON; every save refreshes the TTL.
func NewRedisRepository(store kvStore, ttl time.Duration) Repository {
	return &redisRepository{store: store, ttl: ttl}
}

func (r *redisRepository) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return New(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	c := New()
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return c, nil
}

func (r *redisRepository) Save(ctx context.Context, sessionID string, c *Cart) error {
	if c == nil || c.IsEmpty() {
		return r.Delete(ctx, sessionID)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := r.store.Set(ctx, r.store.CartKey(sessionID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
