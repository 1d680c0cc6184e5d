// Package config implements the typed runtime configuration store. Keys
// are registered with a type and a default value; reads and writes are
// checked against the registered type, and clearing a key restores its
// default.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Kind is the registered type of a configuration key.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

type entry struct {
	kind  Kind
	def   any
	value any // nil means the default applies
}

// Store is a typed key/value configuration store. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore returns an empty store with no registered keys.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// RegisterBool declares a bool key with its default value. Registering a
// key that already exists replaces its default and clears any override.
func (s *Store) RegisterBool(key string, def bool) { s.register(key, KindBool, def) }

// RegisterInt declares an int key with its default value.
func (s *Store) RegisterInt(key string, def int64) { s.register(key, KindInt, def) }

// RegisterFloat declares a float key with its default value.
func (s *Store) RegisterFloat(key string, def float64) { s.register(key, KindFloat, def) }

// RegisterString declares a string key with its default value.
func (s *Store) RegisterString(key string, def string) { s.register(key, KindString, def) }

func (s *Store) register(key string, kind Kind, def any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{kind: kind, def: def}
}

func (s *Store) get(key string, kind Kind) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, status.Newf(status.CodeConfigDoesntExist, "config key %q", key)
	}
	if e.kind != kind {
		return nil, status.Newf(status.CodeConfigTypeMismatch, "config key %q is %s, not %s", key, e.kind, kind)
	}
	if e.value != nil {
		return e.value, nil
	}
	return e.def, nil
}

func (s *Store) set(key string, kind Kind, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return status.Newf(status.CodeConfigDoesntExist, "config key %q", key)
	}
	if e.kind != kind {
		return status.Newf(status.CodeConfigTypeMismatch, "config key %q is %s, not %s", key, e.kind, kind)
	}
	e.value = value
	return nil
}

// Bool reads a bool key.
func (s *Store) Bool(key string) (bool, error) {
	v, err := s.get(key, KindBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Int reads an int key.
func (s *Store) Int(key string) (int64, error) {
	v, err := s.get(key, KindInt)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Float reads a float key.
func (s *Store) Float(key string) (float64, error) {
	v, err := s.get(key, KindFloat)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// String reads a string key.
func (s *Store) String(key string) (string, error) {
	v, err := s.get(key, KindString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SetBool writes a bool key.
func (s *Store) SetBool(key string, value bool) error { return s.set(key, KindBool, value) }

// SetInt writes an int key.
func (s *Store) SetInt(key string, value int64) error { return s.set(key, KindInt, value) }

// SetFloat writes a float key.
func (s *Store) SetFloat(key string, value float64) error { return s.set(key, KindFloat, value) }

// SetString writes a string key.
func (s *Store) SetString(key string, value string) error { return s.set(key, KindString, value) }

// Clear removes any override for key, restoring the registered default.
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return status.Newf(status.CodeConfigDoesntExist, "config key %q", key)
	}
	e.value = nil
	return nil
}

// Keys returns all registered keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StateVersion is the current version of the config file format.
const StateVersion = 1

// State is the on-disk form of the store: only overridden values are
// saved, defaults come from registration.
type State struct {
	Version int                `json:"version"`
	SavedAt time.Time          `json:"saved_at"`
	Bools   map[string]bool    `json:"bools,omitempty"`
	Ints    map[string]int64   `json:"ints,omitempty"`
	Floats  map[string]float64 `json:"floats,omitempty"`
	Strings map[string]string  `json:"strings,omitempty"`
}

// Save persists all overridden values to a JSON file. System errors are
// mapped to the System status codes.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	state := State{
		Version: StateVersion,
		SavedAt: time.Now(),
		Bools:   map[string]bool{},
		Ints:    map[string]int64{},
		Floats:  map[string]float64{},
		Strings: map[string]string{},
	}
	for k, e := range s.entries {
		if e.value == nil {
			continue
		}
		switch e.kind {
		case KindBool:
			state.Bools[k] = e.value.(bool)
		case KindInt:
			state.Ints[k] = e.value.(int64)
		case KindFloat:
			state.Floats[k] = e.value.(float64)
		case KindString:
			state.Strings[k] = e.value.(string)
		}
	}
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return status.FromSystemError(err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return status.FromSystemError(err)
	}
	return nil
}

// Load applies overrides from a JSON file. A missing file is not an
// error. Saved values for keys that are no longer registered, or whose
// registered type changed, are ignored.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return status.FromSystemError(err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range state.Bools {
		if e, ok := s.entries[k]; ok && e.kind == KindBool {
			e.value = v
		}
	}
	for k, v := range state.Ints {
		if e, ok := s.entries[k]; ok && e.kind == KindInt {
			e.value = v
		}
	}
	for k, v := range state.Floats {
		if e, ok := s.entries[k]; ok && e.kind == KindFloat {
			e.value = v
		}
	}
	for k, v := range state.Strings {
		if e, ok := s.entries[k]; ok && e.kind == KindString {
			e.value = v
		}
	}
	return nil
}
