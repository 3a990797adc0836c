// Package lock provides at-most-once execution locks keyed by sync target.
package lock

import (
	"context"
)

// Locker hands out non-blocking locks. When ok is false somebody else holds
// key and unlock is nil.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}
