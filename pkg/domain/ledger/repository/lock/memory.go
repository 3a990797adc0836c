package lock

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"
)

type memoryLocker struct {
	held *xsync.Map[string, struct{}]
}

// NewMemory returns a Locker for a single process.
func NewMemory() *memoryLocker {
	return &memoryLocker{
		held: xsync.NewMap[string, struct{}](),
	}
}

func (l *memoryLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	if _, loaded := l.held.LoadOrStore(key, struct{}{}); loaded {
		return nil, false, nil
	}
	return func() { l.held.Delete(key) }, true, nil
}
