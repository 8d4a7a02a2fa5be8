package bulk

import (
	"context"
	"time"
)

// CatalogImportLockKey is the lock name shared by every importer entry point
const CatalogImportLockKey = "catalog-import"

// RunLock keeps two import runs from writing the catalog at the same time.
type RunLock interface {
	// TryAcquire takes the lock for ttl. ok is false when another holder has it.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)

	// Release frees the lock if token still owns it
	Release(ctx context.Context, key, token string) error
}
