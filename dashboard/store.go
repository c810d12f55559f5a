package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/outsquaremd/medidash/kv"
)

// Persistence keys. Live widgets and layout are written on every mutation;
// saved snapshots are written independently.
const (
	keyWidgets = "dashboardWidgets"
	keyLayout  = "dashboardLayout"
	keySaved   = "savedLayouts"
	keySchema  = "schemaVersion"
)

// SchemaVersion tags persisted data. The loader tolerates absence (legacy
// data predates the tag) and refuses data written by a newer build.
const SchemaVersion = 1

// Store is the single source of truth for widget placement. Widgets and
// layout items are kept in lockstep by every mutating operation, and every
// mutation except edit-mode is persisted.
//
// A Store is an explicit instance, not a process-wide singleton; independent
// stores over independent kv handles do not interact.
type Store struct {
	mu sync.RWMutex
	db kv.Store

	widgets  []Widget
	items    []LayoutItem
	editMode bool

	saved     []Layout
	currentID string
}

// Stats summarizes store contents for health reporting.
type Stats struct {
	Widgets      int  `json:"widgets"`
	SavedLayouts int  `json:"savedLayouts"`
	EditMode     bool `json:"editMode"`
}

// NewStore creates a store over db with empty state. Call Load to hydrate
// from persisted data.
func NewStore(db kv.Store) *Store {
	return &Store{db: db}
}

// Load hydrates live state and saved snapshots from the kv store. Absent keys
// mean first run and are not an error. Malformed stored data is logged and
// the in-memory state kept as-is, so a corrupt entry degrades to an empty
// dashboard rather than a failed start.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.schemaSupported() {
		return
	}

	var widgets []Widget
	var items []LayoutItem
	if s.readJSON(keyWidgets, &widgets) && s.readJSON(keyLayout, &items) {
		if widgets != nil && items != nil {
			s.widgets = widgets
			s.items = items
		}
	}

	var saved []Layout
	if s.readJSON(keySaved, &saved) && saved != nil {
		s.saved = saved
	}
}

// schemaSupported checks the persisted schema tag. Data from a newer build is
// left untouched on disk but not loaded.
func (s *Store) schemaSupported() bool {
	raw, err := s.db.Get(keySchema)
	if errors.Is(err, kv.ErrNotFound) {
		return true // legacy data, written before the tag existed
	}
	if err != nil {
		slog.Error("read schema version", "error", err)
		return true
	}
	version, err := strconv.Atoi(string(raw))
	if err != nil {
		slog.Error("parse schema version", "value", string(raw), "error", err)
		return true
	}
	if version > SchemaVersion {
		slog.Warn("persisted dashboard schema is newer than this build, starting empty",
			"stored", version, "supported", SchemaVersion)
		return false
	}
	return true
}

// readJSON reads and decodes one key into dst. Returns false only when the
// stored value exists but cannot be decoded.
func (s *Store) readJSON(key string, dst any) bool {
	raw, err := s.db.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return true
	}
	if err != nil {
		slog.Error("read dashboard state", "key", key, "error", err)
		return true
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Error("decode dashboard state, keeping in-memory state", "key", key, "error", err)
		return false
	}
	return true
}

// AddWidget appends a widget and its layout item in one transition. The store
// performs no id-uniqueness check; callers generate ids via NewID.
func (s *Store) AddWidget(w Widget, item LayoutItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.widgets = append(s.widgets, w)
	s.items = append(s.items, item)
	s.persistLive()
}

// RemoveWidget filters the widget with matching id out of both sequences.
// Returns false when no widget matched.
func (s *Store) RemoveWidget(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	widgets := s.widgets[:0:0]
	for _, w := range s.widgets {
		if w.ID != id {
			widgets = append(widgets, w)
		}
	}
	if len(widgets) == len(s.widgets) {
		return false
	}

	items := s.items[:0:0]
	for _, it := range s.items {
		if it.ID != id {
			items = append(items, it)
		}
	}

	s.widgets = widgets
	s.items = items
	s.persistLive()
	return true
}

// UpdateWidget merges partial fields into the matching widget. A no-op when
// the id is absent.
func (s *Store) UpdateWidget(id string, patch WidgetUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.widgets {
		if s.widgets[i].ID != id {
			continue
		}
		if patch.Type != nil {
			s.widgets[i].Type = *patch.Type
		}
		if patch.Title != nil {
			s.widgets[i].Title = *patch.Title
		}
		if patch.Config != nil {
			s.widgets[i].Config = cloneConfig(patch.Config)
		}
		s.persistLive()
		return true
	}
	return false
}

// ReplaceLayout replaces the entire layout sequence wholesale. The grid
// engine recomputes all positions after a drag or resize and hands back the
// full compacted sequence; pairing with widgets is the caller's contract and
// is not validated here.
func (s *Store) ReplaceLayout(items []LayoutItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = cloneItems(items)
	s.persistLive()
}

// ToggleEditMode flips the edit flag and returns the new value. Edit mode is
// transient UI state and is never persisted.
func (s *Store) ToggleEditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editMode = !s.editMode
	return s.editMode
}

// SaveCurrentLayout deep-copies live state into a new named snapshot, appends
// it to the saved sequence, marks it current, and persists the saved
// sequence.
func (s *Store) SaveCurrentLayout(name string) Layout {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	snapshot := Layout{
		ID:        NewID(),
		Name:      name,
		Widgets:   cloneWidgets(s.widgets),
		Items:     cloneItems(s.items),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.saved = append(s.saved, snapshot)
	s.currentID = snapshot.ID
	s.persistSaved()

	// Return a copy so the stored snapshot cannot be mutated by the caller.
	out := snapshot
	out.Widgets = cloneWidgets(snapshot.Widgets)
	out.Items = cloneItems(snapshot.Items)
	return out
}

// LoadLayout deep-copies the named snapshot into live state, replacing it
// wholesale, and marks it current. Returns false (a no-op, not an error) when
// the id is unknown.
func (s *Store) LoadLayout(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snapshot := range s.saved {
		if snapshot.ID != id {
			continue
		}
		s.widgets = cloneWidgets(snapshot.Widgets)
		s.items = cloneItems(snapshot.Items)
		s.currentID = id
		s.persistLive()
		return true
	}
	return false
}

// DeleteLayout removes the matching snapshot. If the deleted snapshot was
// current, the current-layout pointer is cleared.
func (s *Store) DeleteLayout(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.saved[:0:0]
	found := false
	for _, snapshot := range s.saved {
		if snapshot.ID == id {
			found = true
			continue
		}
		saved = append(saved, snapshot)
	}
	if !found {
		return false
	}

	s.saved = saved
	if s.currentID == id {
		s.currentID = ""
	}
	s.persistSaved()
	return true
}

// Widgets returns a deep copy of the live widget sequence.
func (s *Store) Widgets() []Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneWidgets(s.widgets)
}

// Items returns a copy of the live layout sequence.
func (s *Store) Items() []LayoutItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// SavedLayouts returns deep copies of all saved snapshots.
func (s *Store) SavedLayouts() []Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Layout, len(s.saved))
	for i, snapshot := range s.saved {
		out[i] = snapshot
		out[i].Widgets = cloneWidgets(snapshot.Widgets)
		out[i].Items = cloneItems(snapshot.Items)
	}
	return out
}

// CurrentLayoutID returns the id of the snapshot live state was last saved to
// or loaded from, or "" when none.
func (s *Store) CurrentLayoutID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// IsEditMode reports whether drag/resize interactions are enabled.
func (s *Store) IsEditMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editMode
}

// Stats returns store counts for health reporting.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Widgets:      len(s.widgets),
		SavedLayouts: len(s.saved),
		EditMode:     s.editMode,
	}
}

// persistLive writes live widgets and layout under their own keys, plus the
// schema tag. Write failures are logged; in-memory state stays authoritative.
func (s *Store) persistLive() {
	s.writeJSON(keyWidgets, s.widgets)
	s.writeJSON(keyLayout, s.items)
	s.writeSchema()
}

// persistSaved writes the saved-snapshot sequence.
func (s *Store) persistSaved() {
	s.writeJSON(keySaved, s.saved)
	s.writeSchema()
}

func (s *Store) writeSchema() {
	if err := s.db.Set(keySchema, []byte(strconv.Itoa(SchemaVersion))); err != nil {
		slog.Error("write schema version", "error", err)
	}
}

func (s *Store) writeJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode dashboard state", "key", key, "error", err)
		return
	}
	if err := s.db.Set(key, data); err != nil {
		slog.Error("write dashboard state", "key", key, "error", err)
	}
}
