package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/richardliu001/bloglite/internal/article"
	"go.uber.org/zap"
)

// CachedRenderer memoizes rendered HTML in Redis. Cache failures never fail
// a render. Keys are namespaced by engine so switching engines never serves
// the other engine's HTML.
type CachedRenderer struct {
	engine string
	next   article.Renderer
	rdb    *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewCachedRenderer(engine string, next article.Renderer, rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedRenderer {
	return &CachedRenderer{engine: engine, next: next, rdb: rdb, ttl: ttl, log: log}
}

// CacheKey returns the redis key for text rendered by engine.
func CacheKey(engine, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "render:" + engine + ":" + hex.EncodeToString(sum[:])
}

func (r *CachedRenderer) Render(ctx context.Context, text string) (string, error) {
	key := CacheKey(r.engine, text)
	html, err := r.rdb.Get(ctx, key).Result()
	if err == nil {
		return html, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.log.Warnf("render cache get %s: %v", key, err)
	}

	html, err = r.next.Render(ctx, text)
	if err != nil {
		return "", err
	}
	if err := r.rdb.Set(ctx, key, html, r.ttl).Err(); err != nil {
		r.log.Warnf("render cache set %s: %v", key, err)
	}
	return html, nil
}
