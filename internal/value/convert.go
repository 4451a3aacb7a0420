package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// ErrUnsupported is returned for raw values that have no Kind.
var ErrUnsupported = errors.New("unsupported value type")

// UnsupportedError describes a raw value that cannot be classified.
type UnsupportedError struct {
	// Type is the Go type of the offending value.
	Type string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnsupported, e.Type)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

func unsupported(raw any) error {
	return &UnsupportedError{Type: fmt.Sprintf("%T", raw)}
}

// KindOf classifies raw without descending into it. The second result is
// false when raw has no Kind.
func KindOf(raw any) (Kind, bool) {
	switch v := raw.(type) {
	case nil:
		return KindNull, true
	case Value:
		return v.kind, true
	case *Map:
		return KindMap, true
	case bool:
		return KindBool, true
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return KindInt, true
	case uint:
		return KindInt, uint64(v) <= math.MaxInt64
	case uint64:
		return KindInt, v <= math.MaxInt64
	case float32, float64:
		return KindFloat, true
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return KindInt, true
		}
		if _, err := v.Float64(); err == nil {
			return KindFloat, true
		}
		return KindNull, false
	case string:
		return KindString, true
	case []any:
		return KindList, true
	case map[string]any, map[any]any:
		return KindMap, true
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindList, true
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMap, true
		}
	}
	return KindNull, false
}

// FromAny converts a raw value, as produced by a parser, into a Value.
// Mapping keys are visited in sorted order.
func FromAny(raw any) (Value, error) {
	kind, ok := KindOf(raw)
	if !ok {
		return Value{}, unsupported(raw)
	}

	switch v := raw.(type) {
	case Value:
		return v, nil
	case *Map:
		return MapOf(v), nil
	}

	switch kind {
	case KindNull:
		return Null(), nil
	case KindBool:
		return Bool(raw.(bool)), nil
	case KindInt:
		return Int(toInt(raw)), nil
	case KindFloat:
		return Float(toFloat(raw)), nil
	case KindString:
		return String(raw.(string)), nil
	case KindList:
		var list []Value
		err := EachChild(raw, func(_ string, child any) error {
			item, err := FromAny(child)
			if err != nil {
				return err
			}
			list = append(list, item)
			return nil
		})
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindList, list: list}, nil
	case KindMap:
		m := NewMap()
		err := EachChild(raw, func(key string, child any) error {
			item, err := FromAny(child)
			if err != nil {
				return err
			}
			m.Set(key, item)
			return nil
		})
		if err != nil {
			return Value{}, err
		}
		return MapOf(m), nil
	}
	return Value{}, unsupported(raw)
}

// EachChild calls fn for every element of a raw list or mapping. List
// elements are keyed by their decimal index; mapping entries are visited in
// sorted key order, except for Value and *Map which keep insertion order.
// Scalars have no children. Iteration stops at the first error from fn.
func EachChild(raw any, fn func(key string, child any) error) error {
	switch v := raw.(type) {
	case Value:
		switch v.kind {
		case KindList:
			for i, item := range v.list {
				if err := fn(strconv.Itoa(i), item); err != nil {
					return err
				}
			}
		case KindMap:
			return EachChild(v.m, fn)
		}
		return nil
	case *Map:
		var err error
		v.Range(func(key string, item Value) bool {
			err = fn(key, item)
			return err == nil
		})
		return err
	case []any:
		for i, item := range v {
			if err := fn(strconv.Itoa(i), item); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, key := range sortedKeys(v) {
			if err := fn(key, v[key]); err != nil {
				return err
			}
		}
		return nil
	case map[any]any:
		keyed := make(map[string]any, len(v))
		for key, item := range v {
			name, ok := key.(string)
			if !ok {
				return &UnsupportedError{Type: fmt.Sprintf("map key %T", key)}
			}
			keyed[name] = item
		}
		return EachChild(keyed, fn)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(strconv.Itoa(i), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		keyed := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keyed[iter.Key().String()] = iter.Value().Interface()
		}
		return EachChild(keyed, fn)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func toInt(raw any) int64 {
	switch v := raw.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case json.Number:
		i, _ := v.Int64()
		return i
	}
	return 0
}

func toFloat(raw any) float64 {
	switch v := raw.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}
