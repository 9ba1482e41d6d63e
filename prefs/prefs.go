// ABOUTME: Preferences service for column visibility and saved list views
// ABOUTME: JSON values in a key/value store keyed by module name or view ULID
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/crmgrid/charm"
	"github.com/oklog/ulid/v2"
)

// ErrViewNotFound is returned when a saved view ID is unknown.
var ErrViewNotFound = errors.New("saved view not found")

// ColumnPref is one entry of a module's ordered column configuration.
type ColumnPref struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// SavedView is a named set of list query parameters for a module.
type SavedView struct {
	ID        string            `json:"id"`
	Module    string            `json:"module"`
	Name      string            `json:"name"`
	Query     map[string]string `json:"query"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store is the typed preferences API used by the table controllers.
type Store interface {
	Columns(module string) ([]ColumnPref, bool, error)
	SetColumns(module string, cols []ColumnPref) error
	SavedView(id string) (SavedView, error)
	SaveView(view SavedView) (SavedView, error)
	Views(module string) ([]SavedView, error)
	DeleteView(id string) error
}

// KV is the byte-level store behind KVStore. *charm.Client satisfies it;
// Get must return charm.ErrNotFound for a missing key.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	KeysWithPrefix(prefix []byte) ([][]byte, error)
}

const (
	columnsPrefix = "columns:"
	viewPrefix    = "view:"
)

// KVStore implements Store over a KV.
type KVStore struct {
	kv  KV
	now func() time.Time
}

// NewKVStore wraps kv.
func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv, now: time.Now}
}

// Columns returns the stored configuration for module. ok is false when the
// module has never been configured.
func (s *KVStore) Columns(module string) ([]ColumnPref, bool, error) {
	data, err := s.kv.Get([]byte(columnsPrefix + module))
	if errors.Is(err, charm.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read columns for %s: %w", module, err)
	}
	var cols []ColumnPref
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, false, fmt.Errorf("failed to decode columns for %s: %w", module, err)
	}
	return cols, true, nil
}

// SetColumns replaces the configuration for module.
func (s *KVStore) SetColumns(module string, cols []ColumnPref) error {
	data, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	if err := s.kv.Set([]byte(columnsPrefix+module), data); err != nil {
		return fmt.Errorf("failed to save columns for %s: %w", module, err)
	}
	return nil
}

// SavedView loads a view by ID.
func (s *KVStore) SavedView(id string) (SavedView, error) {
	data, err := s.kv.Get([]byte(viewPrefix + id))
	if errors.Is(err, charm.ErrNotFound) {
		return SavedView{}, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to read view %s: %w", id, err)
	}
	var v SavedView
	if err := json.Unmarshal(data, &v); err != nil {
		return SavedView{}, fmt.Errorf("failed to decode view %s: %w", id, err)
	}
	return v, nil
}

// SaveView stores view, assigning a ULID when ID is empty.
func (s *KVStore) SaveView(view SavedView) (SavedView, error) {
	if strings.TrimSpace(view.Module) == "" {
		return SavedView{}, errors.New("saved view needs a module")
	}
	if view.ID == "" {
		view.ID = ulid.Make().String()
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(view)
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to encode view: %w", err)
	}
	if err := s.kv.Set([]byte(viewPrefix+view.ID), data); err != nil {
		return SavedView{}, fmt.Errorf("failed to save view: %w", err)
	}
	return view, nil
}

// Views lists the saved views of module, oldest first. An empty module lists all.
func (s *KVStore) Views(module string) ([]SavedView, error) {
	keys, err := s.kv.KeysWithPrefix([]byte(viewPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	var views []SavedView
	for _, k := range keys {
		v, err := s.SavedView(strings.TrimPrefix(string(k), viewPrefix))
		if err != nil {
			return nil, err
		}
		if module == "" || v.Module == module {
			views = append(views, v)
		}
	}
	// ULIDs sort by creation time
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views, nil
}

// DeleteView removes a saved view.
func (s *KVStore) DeleteView(id string) error {
	if err := s.kv.Delete([]byte(viewPrefix + id)); err != nil {
		return fmt.Errorf("failed to delete view %s: %w", id, err)
	}
	return nil
}

// memoryKV is a process-local KV used when charm cannot be opened.
type memoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (m *memoryKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, charm.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memoryKV) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys [][]byte
	for k := range m.data {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, []byte(k))
		}
	}
	return keys, nil
}

// NewMemory returns a Store that lives only as long as the process.
func NewMemory() *KVStore {
	return NewKVStore(&memoryKV{data: map[string][]byte{}})
}
