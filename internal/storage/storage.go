package storage

import "context"

// KV is the durable key-value collaborator. Get reports ok=false for an
// absent key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
