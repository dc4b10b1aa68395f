package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only while it still holds the caller's token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RunLocks marks users with a run in progress so two browser tabs, or two
// instances, cannot drive the same attempt. Holds expire after ttl unless refreshed.
type RunLocks struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRunLocks(client *redis.Client, ttl time.Duration) *RunLocks {
	return &RunLocks{client: client, ttl: ttl}
}

func (l *RunLocks) Acquire(ctx context.Context, userID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(userID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RunLocks) Refresh(ctx context.Context, userID, token string) error {
	if err := refreshScript.Run(ctx, l.client, []string{l.key(userID)}, token, l.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("refresh run lock: %w", err)
	}
	return nil
}

func (l *RunLocks) Release(ctx context.Context, userID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(userID)}, token).Err(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

func (l *RunLocks) key(userID string) string {
	return "quiz:run:" + userID
}
