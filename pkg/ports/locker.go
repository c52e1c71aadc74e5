package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a session lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns on one dialog session across server replicas.
// session.Manager takes the lock around WithLock, so NextEvent, MakeDecision and ResetTo
// never interleave on the same runner cursor or variable namespace.
type DistributedLocker interface {
	// Lock blocks until sessionID is free or ctx is done. The lock expires after ttl
	// if the holder dies mid-turn; the returned UnlockFunc must be called otherwise.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
