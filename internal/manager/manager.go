// Package manager ties loaders, validation, merging and the store together.
//
// Loading a file runs the following steps:
//
//  1. resolve a loader from the file extension
//  2. parse the file into a nested mapping
//  3. validate every top-level entry under the file's base name
//  4. flatten the mapping into dotted keys prefixed by the base name
//  5. merge the entries into the store with the active strategy
//
// Loading "config/db.json" containing {"host": "localhost"} therefore
// defines the key "db.host". Lists are kept whole; only mappings are
// flattened.
//
// A Manager is not safe for concurrent use; callers sharing one across
// goroutines must serialize access themselves.
package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/redhatinsights/configurator/internal/keypath"
	"github.com/redhatinsights/configurator/internal/loader"
	"github.com/redhatinsights/configurator/internal/merge"
	"github.com/redhatinsights/configurator/internal/store"
	"github.com/redhatinsights/configurator/internal/validate"
	"github.com/redhatinsights/configurator/internal/value"
)

var (
	ErrNoLoaderRegistered = errors.New("no loader registered")
	ErrDirectoryNotFound  = errors.New("directory not found")
)

// NoLoaderError reports a file extension without a registered loader.
type NoLoaderError struct {
	Ext string
}

func (e *NoLoaderError) Error() string {
	return fmt.Sprintf("no loader registered for file type: %s", e.Ext)
}

func (e *NoLoaderError) Unwrap() error {
	return ErrNoLoaderRegistered
}

// Manager is the configuration façade.
type Manager struct {
	store     *store.Store
	strategy  merge.Strategy
	validator validate.Validator
	loaders   map[string]loader.Loader
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStrategy sets the merge strategy used by Load and LoadDirectory.
func WithStrategy(strategy merge.Strategy) Option {
	return func(m *Manager) {
		m.strategy = strategy
	}
}

// WithValidator replaces the default validate.Auto validator.
func WithValidator(validator validate.Validator) Option {
	return func(m *Manager) {
		m.validator = validator
	}
}

// WithLoaders registers loaders in order, as RegisterLoader would.
func WithLoaders(loaders ...loader.Loader) Option {
	return func(m *Manager) {
		for _, l := range loaders {
			m.RegisterLoader(l)
		}
	}
}

// WithStore makes the Manager read and write s instead of a new empty store.
// The caller keeps access to s and sees every load.
func WithStore(s *store.Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLogger sets the logger for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager. Without options it uses an empty store, merges with
// merge.Overwrite, validates with validate.Auto and has no loaders.
func New(opts ...Option) *Manager {
	m := &Manager{
		store:     store.New(),
		strategy:  merge.Overwrite{},
		validator: validate.Auto{},
		loaders:   make(map[string]loader.Loader),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterLoader maps every extension declared by l to l. Registration
// order matters: an extension registered again is taken over by the later
// loader.
func (m *Manager) RegisterLoader(l loader.Loader) {
	for _, ext := range l.Extensions() {
		ext = strings.TrimPrefix(ext, ".")
		if previous, ok := m.loaders[ext]; ok {
			m.logger.Debug("replacing loader", "ext", ext, "previous", fmt.Sprintf("%T", previous), "loader", fmt.Sprintf("%T", l))
		}
		m.loaders[ext] = l
	}
}

// Extensions returns the registered extensions in sorted order.
func (m *Manager) Extensions() []string {
	extensions := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// Load reads the file at path and merges its content under the file's base
// name.
func (m *Manager) Load(path string) error {
	return m.load(path, m.logger)
}

func (m *Manager) load(path string, logger *slog.Logger) error {
	ext := extension(path)
	l, ok := m.loaders[ext]
	if !ok {
		return &NoLoaderError{Ext: ext}
	}
	logger = logger.With("path", path)
	logger.Debug("loader resolved", "ext", ext, "loader", fmt.Sprintf("%T", l))

	config, err := l.Load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	logger.Debug("source parsed", "prefix", prefix, "keys", len(config))

	if err := m.validateConfig(config, prefix); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("source validated", "prefix", prefix)

	entries, err := flatten(config, prefix)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := m.strategy.Merge(m.store, entries); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("source stored", "prefix", prefix, "entries", len(entries), "strategy", m.strategy.Name())
	return nil
}

// LoadDirectory loads every regular file directly inside dir whose
// extension has a loader, in lexicographic order. Subdirectories are not
// descended. Loading stops at the first failure; files loaded before it stay
// merged. Use Snapshot and Restore for all-or-nothing behaviour.
func (m *Manager) LoadDirectory(dir string) error {
	files, err := m.configFiles(dir)
	if err != nil {
		return err
	}

	logger := m.logger.With("dir", dir, "batch", uuid.New().String())
	logger.Debug("loading directory", "files", len(files))
	for _, file := range files {
		if err := m.load(file, logger); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) configFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		// Stat follows symlinks, so linked files count as regular files.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if _, ok := m.loaders[extension(entry.Name())]; !ok {
			m.logger.Debug("skipping file without loader", "dir", dir, "file", entry.Name())
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func (m *Manager) validateConfig(config map[string]any, prefix string) error {
	return value.EachChild(config, func(key string, raw any) error {
		if !keypath.Valid(key) {
			return &validate.InvalidKeyError{Parent: prefix, Name: key}
		}
		return m.validator.Validate(raw, keypath.Join(prefix, key))
	})
}

// flatten turns a nested mapping into store entries under prefix. Mappings
// are descended in sorted key order; every other value becomes one entry.
// Keys with empty segments fail whatever validator is installed, before any
// entry is produced.
func flatten(config map[string]any, prefix string) ([]store.Entry, error) {
	var entries []store.Entry
	var walk func(raw any, key string) error
	walk = func(raw any, key string) error {
		if kind, _ := value.KindOf(raw); kind == value.KindMap {
			return value.EachChild(raw, func(name string, child any) error {
				if !keypath.Valid(name) {
					return &validate.InvalidKeyError{Parent: key, Name: name}
				}
				return walk(child, keypath.Join(key, name))
			})
		}
		v, err := value.FromAny(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		entries = append(entries, store.Entry{Key: key, Value: v})
		return nil
	}
	if err := walk(config, prefix); err != nil {
		return nil, err
	}
	return entries, nil
}

func extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// Get returns the value under key, or def when key does not resolve.
func (m *Manager) Get(key string, def value.Value) value.Value {
	return m.store.Get(key, def)
}

// Lookup returns the value under key and whether it resolved.
func (m *Manager) Lookup(key string) (value.Value, bool) {
	return m.store.Lookup(key)
}

// Set stores v under key, bypassing validation and the merge strategy.
func (m *Manager) Set(key string, v value.Value) error {
	return m.store.Set(key, v)
}

// Has reports whether key resolves.
func (m *Manager) Has(key string) bool {
	return m.store.Has(key)
}

// All returns one entry per stored leaf.
func (m *Manager) All() []store.Entry {
	return m.store.All()
}

// Decode copies the subtree under key, or the whole store when key is
// empty, into target using "mapstructure" struct tags. Scalars are
// converted weakly, so "30" decodes into an int field.
func (m *Manager) Decode(key string, target any) error {
	input := m.store.Tree().Interface()
	if key != "" {
		v, ok := m.store.Lookup(key)
		if !ok {
			return fmt.Errorf("decode %s: key not found", key)
		}
		input = v.Interface()
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Snapshot returns a copy of the current store.
func (m *Manager) Snapshot() *store.Store {
	return m.store.Clone()
}

// Restore replaces the store with a copy of snapshot.
func (m *Manager) Restore(snapshot *store.Store) {
	m.store = snapshot.Clone()
}
