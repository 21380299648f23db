package save

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when no record exists under the key.
// It is distinct from a corrupt record, which surfaces as ErrCorrupt from
// the Gateway.
var ErrNotFound = errors.New("save: record not found")

// Store is a durable key-value store for persisted records. Implementations
// must report missing keys as ErrNotFound and treat Delete of a missing key
// as a no-op.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
