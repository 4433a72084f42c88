// Package redislock serializes conversation turns per lead. One lock per
// lead, taken for the duration of a turn; contention means another message
// for the same lead is still in flight.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"groweasy-agent/internal/common/logger"
)

const keyPrefix = "turnlock:"

type TurnLock struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewTurnLock(client *redis.Client, ttl time.Duration, log logger.Logger) *TurnLock {
	return &TurnLock{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "turn_lock"}),
	}
}

// Acquire takes the per-lead lock. It returns false without error when the
// lock is already held; the TTL bounds how long a crashed turn can block the
// lead.
func (l *TurnLock) Acquire(ctx context.Context, leadID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+leadID, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire turn lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock. Releasing an expired lock is a no-op.
func (l *TurnLock) Release(ctx context.Context, leadID string) {
	if err := l.client.Del(ctx, keyPrefix+leadID).Err(); err != nil {
		l.logger.Warn("turn lock release failed", map[string]interface{}{
			"leadId": leadID,
			"error":  err.Error(),
		})
	}
}
