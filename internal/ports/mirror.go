package ports

import "context"

// Mirror is the durable store used for high-persistence records while they
// wait in the buffer. Implementations store opaque blobs keyed by string;
// the buffer handles serialization. Each operation must be individually
// atomic: a reader never observes a partial write.
type Mirror interface {
	// StorageKey returns the stable key under which the snapshot blob lives.
	StorageKey() string

	// GetItem retrieves the blob stored under key.
	// Returns (nil, nil) if no blob exists.
	// Returns an error only for actual read failures.
	GetItem(ctx context.Context, key string) ([]byte, error)

	// SetItem stores blob under key, replacing any previous value atomically.
	SetItem(ctx context.Context, key string, blob []byte) error

	// RemoveItem deletes the blob stored under key.
	// Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Clear deletes every blob the mirror manages.
	Clear(ctx context.Context) error
}
