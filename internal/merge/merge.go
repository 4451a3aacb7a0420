// Package merge applies flattened configuration entries to a store under a
// conflict policy.
//
// Strategies work on flat entries only; nested data must be flattened by the
// caller first. Entries are applied in the order given.
package merge

import (
	"errors"
	"fmt"

	"github.com/redhatinsights/configurator/internal/store"
	"github.com/redhatinsights/configurator/internal/value"
)

// ErrDuplicateKey is returned by Strict when a key is already present.
var ErrDuplicateKey = errors.New("duplicate configuration key")

// ErrUnknownStrategy is returned by Named for unrecognised names.
var ErrUnknownStrategy = errors.New("unknown merge strategy")

// DuplicateKeyError names the key that stopped a strict merge.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("configuration key '%s' already exists and cannot be overwritten in strict mode", e.Key)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

// Target is the part of a store a Strategy writes to.
type Target interface {
	Has(key string) bool
	Set(key string, v value.Value) error
}

// Strategy merges entries into a Target.
type Strategy interface {
	Name() string
	Merge(dst Target, entries []store.Entry) error
}

// Overwrite sets every entry unconditionally; the last writer wins.
type Overwrite struct{}

// Name returns "overwrite".
func (Overwrite) Name() string { return "overwrite" }

// Merge sets each entry in order, replacing existing values.
func (Overwrite) Merge(dst Target, entries []store.Entry) error {
	for _, entry := range entries {
		if err := dst.Set(entry.Key, entry.Value); err != nil {
			return fmt.Errorf("set %s: %w", entry.Key, err)
		}
	}
	return nil
}

// Strict refuses to replace existing keys. It stops at the first conflict;
// entries applied before it are kept.
type Strict struct{}

// Name returns "strict".
func (Strict) Name() string { return "strict" }

// Merge sets each entry in order and returns a *DuplicateKeyError for the
// first key dst already has.
func (Strict) Merge(dst Target, entries []store.Entry) error {
	for _, entry := range entries {
		if dst.Has(entry.Key) {
			return &DuplicateKeyError{Key: entry.Key}
		}
		if err := dst.Set(entry.Key, entry.Value); err != nil {
			return fmt.Errorf("set %s: %w", entry.Key, err)
		}
	}
	return nil
}

// Named returns the strategy called name.
func Named(name string) (Strategy, error) {
	switch name {
	case Overwrite{}.Name():
		return Overwrite{}, nil
	case Strict{}.Name():
		return Strict{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
