// Package redisstore keeps article leases and job records in Redis so several
// pipeline processes can share them.
package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/ports"
)

const (
	keyPrefix      = "content-refresher:"
	defaultLockTTL = 15 * time.Minute
	releaseTimeout = 5 * time.Second
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker hands out per-article leases with SET NX PX and a random token.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker builds a Redis-backed lease table. ttl bounds how long a crashed
// holder can block an article.
func NewLocker(client *redis.Client, ttl time.Duration, log *slog.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Locker{client: client, ttl: ttl, logger: log}
}

// Acquire takes the lease for articleID or fails with domain.ErrRefreshInProgress.
func (l *Locker) Acquire(ctx context.Context, articleID int64) (func(), error) {
	key := lockKey(articleID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease for article %d: %w", articleID, err)
	}
	if !ok {
		return nil, fmt.Errorf("article %d: %w", articleID, domain.ErrRefreshInProgress)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release article lease", "article_id", articleID, "error", err)
		}
	}, nil
}

func lockKey(articleID int64) string {
	return keyPrefix + "lock:article:" + strconv.FormatInt(articleID, 10)
}
