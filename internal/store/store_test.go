package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/redhatinsights/configurator/internal/keypath"
	"github.com/redhatinsights/configurator/internal/value"
)

func mustSet(t *testing.T, s *Store, key string, v value.Value) {
	t.Helper()
	if err := s.Set(key, v); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func mapOf(pairs ...any) value.Value {
	m := value.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return value.MapOf(m)
}

func TestStore_SetGet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value value.Value
	}{
		{name: "top-level string", key: "name", value: value.String("app")},
		{name: "nested integer", key: "database.port", value: value.Int(3306)},
		{name: "deep boolean", key: "a.b.c.d", value: value.Bool(false)},
		{name: "float", key: "limits.ratio", value: value.Float(0.75)},
		{name: "null", key: "cache.password", value: value.Null()},
		{name: "list", key: "app.providers", value: value.List(value.String("auth"), value.String("db"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			mustSet(t, s, tt.key, tt.value)

			if !s.Has(tt.key) {
				t.Errorf("Has(%q) = false after Set", tt.key)
			}
			if diff := cmp.Diff(tt.value, s.Get(tt.key, value.String("default"))); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_MissingKeyReturnsDefault(t *testing.T) {
	s := New()
	mustSet(t, s, "app.name", value.String("rhc"))

	def := value.String("default")
	for _, key := range []string{"non.existent.key", "app.version", "app.name.first", "", "app..name"} {
		if s.Has(key) {
			t.Errorf("Has(%q) = true, want false", key)
		}
		if got := s.Get(key, def); !got.Equal(def) {
			t.Errorf("Get(%q) = %v, want default", key, got)
		}
		if _, ok := s.Lookup(key); ok {
			t.Errorf("Lookup(%q) resolved", key)
		}
	}
}

func TestStore_GetBranchReturnsSubtree(t *testing.T) {
	s := New()
	mustSet(t, s, "db.host", value.String("localhost"))
	mustSet(t, s, "db.port", value.Int(3306))

	expected := mapOf("host", value.String("localhost"), "port", value.Int(3306))
	if diff := cmp.Diff(expected, s.Get("db", value.Null())); diff != "" {
		t.Errorf("Get(db) mismatch (-want +got):\n%s", diff)
	}
	if !s.Has("db") {
		t.Error("Has(db) = false for a branch")
	}

	// The returned subtree is a copy.
	sub, _ := s.Get("db", value.Null()).AsMap()
	sub.Set("host", value.String("elsewhere"))
	if got := s.Get("db.host", value.Null()); !got.Equal(value.String("localhost")) {
		t.Errorf("store changed through returned subtree: %v", got)
	}
}

func TestStore_SetThroughLeafReplacesIt(t *testing.T) {
	s := New()
	mustSet(t, s, "a", value.Int(1))
	mustSet(t, s, "a.b", value.Int(2))

	if diff := cmp.Diff([]Entry{{Key: "a.b", Value: value.Int(2)}}, s.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SetLeafOverBranchReplacesSubtree(t *testing.T) {
	s := New()
	mustSet(t, s, "a.b", value.Int(1))
	mustSet(t, s, "a.c", value.Int(2))
	mustSet(t, s, "a", value.String("flat"))

	if s.Has("a.b") || s.Has("a.c") {
		t.Error("former descendants should be gone")
	}
	if got := s.Get("a", value.Null()); !got.Equal(value.String("flat")) {
		t.Errorf("Get(a) = %v, want flat", got)
	}
}

func TestStore_SetMapExpandsIntoBranches(t *testing.T) {
	expanded := New()
	mustSet(t, expanded, "a", mapOf("b", value.Int(1), "c.d", value.Bool(true)))

	explicit := New()
	mustSet(t, explicit, "a.b", value.Int(1))
	mustSet(t, explicit, "a.c.d", value.Bool(true))

	if diff := cmp.Diff(explicit.All(), expanded.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
	if !expanded.Has("a.c.d") {
		t.Error("dotted map key should be expanded")
	}
}

func TestStore_SetEmptyMapCreatesEmptyBranch(t *testing.T) {
	s := New()
	mustSet(t, s, "features", value.MapOf(nil))

	if !s.Has("features") {
		t.Error("Has(features) = false")
	}
	if got := s.All(); len(got) != 0 {
		t.Errorf("All() = %v, want no entries", got)
	}
}

func TestStore_SetInvalidKey(t *testing.T) {
	s := New()
	for _, key := range []string{"", "a..b", ".a", "a."} {
		if err := s.Set(key, value.Int(1)); !errors.Is(err, keypath.ErrInvalidKey) {
			t.Errorf("Set(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}

	err := s.Set("a", mapOf("ok", value.Int(1), "bad.", value.Int(2)))
	if !errors.Is(err, keypath.ErrInvalidKey) {
		t.Errorf("Set with invalid nested key error = %v, want ErrInvalidKey", err)
	}
	if s.Has("a") {
		t.Error("failed Set should not modify the store")
	}
}

func TestStore_All(t *testing.T) {
	s := New()
	mustSet(t, s, "zeta", value.Int(1))
	mustSet(t, s, "app.name", value.String("TestApp"))
	mustSet(t, s, "app.version", value.String("2.1.0"))
	mustSet(t, s, "alpha.list", value.List(value.Int(1)))
	mustSet(t, s, "app.debug", value.Bool(true))
	mustSet(t, s, "app.name", value.String("Renamed"))

	expected := []Entry{
		{Key: "zeta", Value: value.Int(1)},
		{Key: "app.name", Value: value.String("Renamed")},
		{Key: "app.version", Value: value.String("2.1.0")},
		{Key: "app.debug", Value: value.Bool(true)},
		{Key: "alpha.list", Value: value.List(value.Int(1))},
	}
	if diff := cmp.Diff(expected, s.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != len(expected) {
		t.Errorf("Len() = %d, want %d", s.Len(), len(expected))
	}
}

func TestStore_ListIsLeaf(t *testing.T) {
	s := New()
	mustSet(t, s, "app.providers", value.List(value.String("a"), value.String("b")))

	if s.Has("app.providers.0") {
		t.Error("list elements should not be addressable")
	}
}

func TestStore_Delete(t *testing.T) {
	s := New()
	mustSet(t, s, "a.b", value.Int(1))
	mustSet(t, s, "a.c", value.Int(2))
	mustSet(t, s, "d", value.Int(3))

	if !s.Delete("a.b") {
		t.Error("Delete(a.b) = false")
	}
	if s.Delete("a.b") {
		t.Error("second Delete(a.b) = true")
	}
	if s.Delete("d.x") {
		t.Error("Delete below a leaf should fail")
	}
	if !s.Delete("a") {
		t.Error("Delete(a) = false")
	}
	if diff := cmp.Diff([]Entry{{Key: "d", Value: value.Int(3)}}, s.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Clone(t *testing.T) {
	s := New()
	mustSet(t, s, "a.b", value.Int(1))

	c := s.Clone()
	mustSet(t, s, "a.b", value.Int(2))
	mustSet(t, s, "x", value.Int(3))

	if diff := cmp.Diff([]Entry{{Key: "a.b", Value: value.Int(1)}}, c.All()); diff != "" {
		t.Errorf("clone mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Tree(t *testing.T) {
	s := New()
	mustSet(t, s, "db.host", value.String("localhost"))
	mustSet(t, s, "debug", value.Bool(true))

	expected := mapOf(
		"db", mapOf("host", value.String("localhost")),
		"debug", value.Bool(true),
	)
	if diff := cmp.Diff(expected, s.Tree()); diff != "" {
		t.Errorf("Tree() mismatch (-want +got):\n%s", diff)
	}
}
