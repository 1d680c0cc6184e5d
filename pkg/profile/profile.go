// Package profile manages named user profiles. Each profile owns a data
// directory holding its calibration and per-user settings; exactly one
// profile is current at a time.
package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// StateVersion is the current version of the profile state file format.
const StateVersion = 1

const stateFile = "profiles.json"

// state is the on-disk record of known profiles and the current one.
type state struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Names   []string  `json:"names,omitempty"`
	Current string    `json:"current,omitempty"`
}

// Store manages profiles rooted at a base directory. It is safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	root    string
	names   map[string]struct{}
	current string
}

// NewStore opens the profile store at root, creating the directory and
// loading any existing state.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, status.FromSystemError(err)
	}
	s := &Store{root: root, names: make(map[string]struct{})}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(filepath.Join(s.root, stateFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return status.FromSystemError(err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	for _, n := range st.Names {
		s.names[n] = struct{}{}
	}
	if _, ok := s.names[st.Current]; ok {
		s.current = st.Current
	}
	return nil
}

// save is called with the lock held.
func (s *Store) save() error {
	st := state{
		Version: StateVersion,
		SavedAt: time.Now(),
		Names:   make([]string, 0, len(s.names)),
		Current: s.current,
	}
	for n := range s.names {
		st.Names = append(st.Names, n)
	}
	sort.Strings(st.Names)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.root, stateFile), data, 0644); err != nil {
		return status.FromSystemError(err)
	}
	return nil
}

// validName reports whether a profile name is acceptable: non-empty,
// no path separators, and not a reserved directory entry.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return name != stateFile
}

// Create registers a new profile. It returns status.ErrProfileInvalidName
// for an unusable name and status.ErrProfileNotAvailable if the name is
// taken.
func (s *Store) Create(name string) error {
	if !validName(name) {
		return status.Newf(status.CodeProfileInvalidName, "profile name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return status.Newf(status.CodeProfileNotAvailable, "profile %q already exists", name)
	}
	s.names[name] = struct{}{}
	return s.save()
}

// Rename changes a profile's name, carrying its data directory along.
// Renaming the current profile keeps it current.
func (s *Store) Rename(oldName, newName string) error {
	if !validName(newName) {
		return status.Newf(status.CodeProfileInvalidName, "profile name %q", newName)
	}
	if oldName == newName {
		return status.Newf(status.CodeInvalidArgument, "old and new name are both %q", oldName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[oldName]; !ok {
		return status.Newf(status.CodeProfileDoesntExist, "profile %q", oldName)
	}
	if _, ok := s.names[newName]; ok {
		return status.Newf(status.CodeProfileNotAvailable, "profile %q already exists", newName)
	}

	oldDir := filepath.Join(s.root, oldName)
	if _, err := os.Stat(oldDir); err == nil {
		if err := os.Rename(oldDir, filepath.Join(s.root, newName)); err != nil {
			return status.FromSystemError(err)
		}
	}

	delete(s.names, oldName)
	s.names[newName] = struct{}{}
	if s.current == oldName {
		s.current = newName
	}
	return s.save()
}

// Delete removes a profile and its data directory. Deleting the current
// profile leaves no profile current.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; !ok {
		return status.Newf(status.CodeProfileDoesntExist, "profile %q", name)
	}
	if err := os.RemoveAll(filepath.Join(s.root, name)); err != nil {
		return status.FromSystemError(err)
	}
	delete(s.names, name)
	if s.current == name {
		s.current = ""
	}
	return s.save()
}

// List returns all profile names, sorted.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetCurrent makes a profile current. Selecting the profile that is
// already current returns status.ErrProfileNotAvailable.
func (s *Store) SetCurrent(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; !ok {
		return status.Newf(status.CodeProfileDoesntExist, "profile %q", name)
	}
	if s.current == name {
		return status.Newf(status.CodeProfileNotAvailable, "profile %q is already current", name)
	}
	s.current = name
	return s.save()
}

// Current returns the current profile name. An empty string means no
// profile is current.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// DataPath returns the profile's data directory, creating it if needed.
func (s *Store) DataPath(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; !ok {
		return "", status.Newf(status.CodeProfileDoesntExist, "profile %q", name)
	}
	dir := filepath.Join(s.root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", status.FromSystemError(err)
	}
	return dir, nil
}
