// Package storage defines the seen-item store and its implementations.
package storage

import "context"

// Storage records which feed entries have already been notified, keyed by link.
//
// Record must only be called after Exists returned false for the same link;
// the store does not enforce uniqueness itself.
type Storage interface {
	Exists(ctx context.Context, link string) (bool, error)
	Record(ctx context.Context, title, link string) error
	Count(ctx context.Context) (int, error)

	Close() error
}
