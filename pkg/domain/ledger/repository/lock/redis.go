package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "eve-ledger:lock:"

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisLocker struct {
	log    *zap.Logger
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a Locker shared by every process using the same redis.
// A lock expires after ttl even when its holder dies.
func NewRedis(log *zap.Logger, client *redis.Client, ttl time.Duration) *redisLocker {
	return &redisLocker{
		log:    log,
		client: client,
		ttl:    ttl,
	}
}

func (l *redisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixNano())
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, l.ttl).Result()
	if err != nil {
		return nil, false, errors.Wrapf(err, "error acquiring lock: %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := release.Run(ctx, l.client, []string{keyPrefix + key}, token).Err()
		if err != nil {
			l.log.Warn("error releasing lock", zap.String("key", key), zap.Error(err))
		}
	}
	return unlock, true, nil
}
