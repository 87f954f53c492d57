// Package denylist tracks refresh tokens that were revoked by logout or
// rotation before their natural expiry.
package denylist

import (
	"context"
	"time"
)

type Denylist interface {
	// Add revokes jti for ttl; a non-positive ttl is a no-op.
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
	// Spend revokes jti and reports whether this call was the one that revoked it.
	// A non-positive ttl is a no-op that reports true.
	Spend(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}
