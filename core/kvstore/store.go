package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrInvalidKey is returned when a key segment is empty or contains the separator.
	ErrInvalidKey = errors.New("kvstore: invalid key")
)

// Separator joins key segments built by Key.
const Separator = ":"

// Store is durable string storage shared by every component of a process.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
}

// Key builds "namespace:audience:name". Segments may not be empty or contain
// the separator, so keys for different audiences can never collide.
func Key(namespace, audience, name string) (string, error) {
	for _, seg := range []string{namespace, audience, name} {
		if seg == "" || strings.Contains(seg, Separator) {
			return "", fmt.Errorf("%w: segment %q", ErrInvalidKey, seg)
		}
	}
	return namespace + Separator + audience + Separator + name, nil
}
