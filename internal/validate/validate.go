// Package validate checks raw configuration data before it is stored.
//
// Validation is structural only: every value must have a value.Kind, and
// every mapping key must be usable as part of a dotted key. Lists and
// mappings are descended and their children are reported as "key.child"
// ("key.0" for list elements). Ranges, required keys and application
// schemas are out of scope.
package validate

import (
	"errors"
	"fmt"

	"github.com/redhatinsights/configurator/internal/keypath"
	"github.com/redhatinsights/configurator/internal/value"
)

// ErrUnsupportedType is returned for values that cannot be classified.
var ErrUnsupportedType = errors.New("unsupported configuration type")

// UnsupportedTypeError names the offending key and its Go type.
type UnsupportedTypeError struct {
	Key  string
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("configuration '%s' has unsupported type %s", e.Key, e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// InvalidKeyError names a mapping key that would produce an empty path
// segment.
type InvalidKeyError struct {
	// Parent is the dotted key of the mapping holding Name.
	Parent string
	Name   string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("configuration '%s' has invalid key %q", e.Parent, e.Name)
}

func (e *InvalidKeyError) Unwrap() error {
	return keypath.ErrInvalidKey
}

// Validator inspects a raw value that will be stored under key.
type Validator interface {
	Validate(raw any, key string) error
}

// Func adapts a function to the Validator interface.
type Func func(raw any, key string) error

// Validate calls f.
func (f Func) Validate(raw any, key string) error {
	return f(raw, key)
}

// Auto classifies values by their inferred type and rejects anything that is
// not null, a boolean, a number, a string, a list or a string-keyed mapping.
type Auto struct{}

// Validate returns an *UnsupportedTypeError naming the first unsupported
// value inside raw, or an *InvalidKeyError for a nested key that cannot be
// stored.
func (a Auto) Validate(raw any, key string) error {
	kind, ok := value.KindOf(raw)
	if !ok {
		return &UnsupportedTypeError{Key: key, Type: fmt.Sprintf("%T", raw)}
	}
	if kind != value.KindList && kind != value.KindMap {
		return nil
	}

	err := value.EachChild(raw, func(name string, child any) error {
		if kind == value.KindMap && !keypath.Valid(name) {
			return &InvalidKeyError{Parent: key, Name: name}
		}
		return a.Validate(child, keypath.Join(key, name))
	})

	var unsupportedErr *value.UnsupportedError
	if errors.As(err, &unsupportedErr) {
		// Raised by EachChild itself for mappings with non-string keys.
		return &UnsupportedTypeError{Key: key, Type: unsupportedErr.Type}
	}
	return err
}
