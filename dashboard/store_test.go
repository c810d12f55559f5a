package dashboard

import (
	"reflect"
	"testing"

	"github.com/outsquaremd/medidash/kv"
)

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	db := kv.NewMemory()
	s := NewStore(db)
	s.Load()
	return s, db
}

func testWidget(id string) (Widget, LayoutItem) {
	w := Widget{ID: id, Type: "daily_stats", Title: "Daily Statistics"}
	item := LayoutItem{ID: id, X: 0, Y: 0, W: 3, H: 2, MinW: 3, MinH: 2}
	return w, item
}

func idSet(t *testing.T, s *Store) (map[string]bool, map[string]bool) {
	t.Helper()
	widgets := make(map[string]bool)
	for _, w := range s.Widgets() {
		widgets[w.ID] = true
	}
	items := make(map[string]bool)
	for _, it := range s.Items() {
		items[it.ID] = true
	}
	return widgets, items
}

func TestStore_PairingInvariant(t *testing.T) {
	s, _ := newTestStore(t)

	steps := []struct {
		name string
		op   func()
	}{
		{"add a", func() { w, it := testWidget("a"); s.AddWidget(w, it) }},
		{"add b", func() { w, it := testWidget("b"); s.AddWidget(w, it) }},
		{"add c", func() { w, it := testWidget("c"); s.AddWidget(w, it) }},
		{"remove b", func() { s.RemoveWidget("b") }},
		{"remove missing", func() { s.RemoveWidget("nope") }},
		{"replace layout", func() {
			s.ReplaceLayout([]LayoutItem{
				{ID: "a", X: 0, Y: 0, W: 3, H: 2},
				{ID: "c", X: 3, Y: 0, W: 4, H: 2},
			})
		}},
		{"remove a", func() { s.RemoveWidget("a") }},
	}

	for _, step := range steps {
		step.op()
		widgets, items := idSet(t, s)
		if !reflect.DeepEqual(widgets, items) {
			t.Fatalf("after %q: widget ids %v != layout ids %v", step.name, widgets, items)
		}
	}
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	s, db := newTestStore(t)

	w, item := testWidget("a")
	w.Config = &WidgetConfig{RefreshRate: 30, DisplayMode: "compact", Filters: map[string]any{"provider": "dr-m"}}
	s.AddWidget(w, item)
	w2, item2 := testWidget("b")
	s.AddWidget(w2, item2)
	s.SaveCurrentLayout("morning")

	// Simulate a reload: fresh store over the same kv handle.
	reloaded := NewStore(db)
	reloaded.Load()

	if !reflect.DeepEqual(reloaded.Widgets(), s.Widgets()) {
		t.Errorf("widgets after reload = %+v, want %+v", reloaded.Widgets(), s.Widgets())
	}
	if !reflect.DeepEqual(reloaded.Items(), s.Items()) {
		t.Errorf("items after reload = %+v, want %+v", reloaded.Items(), s.Items())
	}
	if got, want := len(reloaded.SavedLayouts()), 1; got != want {
		t.Errorf("saved layouts after reload = %d, want %d", got, want)
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s, _ := newTestStore(t)

	w, item := testWidget("a")
	s.AddWidget(w, item)
	snapshot := s.SaveCurrentLayout("A")

	// Mutate live state after the save.
	w2, item2 := testWidget("b")
	s.AddWidget(w2, item2)
	s.UpdateWidget("a", WidgetUpdate{Title: strPtr("Renamed")})

	stored := findLayout(t, s, snapshot.ID)
	if len(stored.Widgets) != 1 {
		t.Fatalf("snapshot widgets = %d, want 1", len(stored.Widgets))
	}
	if stored.Widgets[0].Title != "Daily Statistics" {
		t.Errorf("snapshot widget title = %q, want untouched original", stored.Widgets[0].Title)
	}
}

func TestStore_LoadLayoutRestoresExactly(t *testing.T) {
	s, _ := newTestStore(t)

	w, item := testWidget("a")
	w.Config = &WidgetConfig{DisplayMode: "list"}
	s.AddWidget(w, item)
	snapshot := s.SaveCurrentLayout("A")

	s.RemoveWidget("a")
	wb, itemB := testWidget("b")
	s.AddWidget(wb, itemB)

	if !s.LoadLayout(snapshot.ID) {
		t.Fatal("LoadLayout returned false for existing snapshot")
	}

	if !reflect.DeepEqual(s.Widgets(), snapshot.Widgets) {
		t.Errorf("live widgets = %+v, want snapshot copy %+v", s.Widgets(), snapshot.Widgets)
	}
	if !reflect.DeepEqual(s.Items(), snapshot.Items) {
		t.Errorf("live items = %+v, want snapshot copy %+v", s.Items(), snapshot.Items)
	}
	if s.CurrentLayoutID() != snapshot.ID {
		t.Errorf("current layout id = %q, want %q", s.CurrentLayoutID(), snapshot.ID)
	}
}

func TestStore_LoadLayoutMissingIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)

	w, item := testWidget("a")
	s.AddWidget(w, item)

	if s.LoadLayout("missing") {
		t.Error("LoadLayout(missing) = true, want false")
	}
	if len(s.Widgets()) != 1 {
		t.Error("live state changed by failed load")
	}
}

func TestStore_DeleteLayoutClearsPointer(t *testing.T) {
	s, _ := newTestStore(t)

	w, item := testWidget("a")
	s.AddWidget(w, item)
	first := s.SaveCurrentLayout("first")
	second := s.SaveCurrentLayout("second")

	// Deleting a non-current snapshot leaves the pointer alone.
	if !s.DeleteLayout(first.ID) {
		t.Fatal("DeleteLayout(first) = false")
	}
	if s.CurrentLayoutID() != second.ID {
		t.Errorf("current layout id = %q, want %q", s.CurrentLayoutID(), second.ID)
	}

	// Deleting the current snapshot clears it.
	if !s.DeleteLayout(second.ID) {
		t.Fatal("DeleteLayout(second) = false")
	}
	if s.CurrentLayoutID() != "" {
		t.Errorf("current layout id = %q, want empty", s.CurrentLayoutID())
	}

	if s.DeleteLayout("missing") {
		t.Error("DeleteLayout(missing) = true, want false")
	}
}

func TestStore_UpdateWidget(t *testing.T) {
	s, _ := newTestStore(t)

	w, item := testWidget("a")
	s.AddWidget(w, item)

	if !s.UpdateWidget("a", WidgetUpdate{
		Title:  strPtr("Stats"),
		Config: &WidgetConfig{RefreshRate: 60},
	}) {
		t.Fatal("UpdateWidget(a) = false")
	}

	got := s.Widgets()[0]
	if got.Title != "Stats" {
		t.Errorf("title = %q, want %q", got.Title, "Stats")
	}
	if got.Type != "daily_stats" {
		t.Errorf("type = %q, want unchanged", got.Type)
	}
	if got.Config == nil || got.Config.RefreshRate != 60 {
		t.Errorf("config = %+v, want refresh rate 60", got.Config)
	}

	if s.UpdateWidget("missing", WidgetUpdate{Title: strPtr("x")}) {
		t.Error("UpdateWidget(missing) = true, want false")
	}
}

func TestStore_ToggleEditMode(t *testing.T) {
	s, db := newTestStore(t)

	if s.IsEditMode() {
		t.Fatal("edit mode should start false")
	}
	if !s.ToggleEditMode() {
		t.Error("first toggle should return true")
	}
	if s.ToggleEditMode() {
		t.Error("second toggle should return false")
	}

	// Edit mode is transient: nothing written for it.
	if _, err := db.Get("editMode"); err == nil {
		t.Error("edit mode must not be persisted")
	}
}

func TestStore_MalformedPersistedData(t *testing.T) {
	db := kv.NewMemory()
	db.Set("dashboardWidgets", []byte("{not json"))
	db.Set("dashboardLayout", []byte("[]"))

	s := NewStore(db)
	s.Load()

	if len(s.Widgets()) != 0 || len(s.Items()) != 0 {
		t.Error("malformed data should fall back to empty state")
	}
}

func TestStore_NewerSchemaFallsBackEmpty(t *testing.T) {
	db := kv.NewMemory()
	db.Set("schemaVersion", []byte("99"))
	db.Set("dashboardWidgets", []byte(`[{"id":"a","type":"daily_stats","title":"x"}]`))
	db.Set("dashboardLayout", []byte(`[{"id":"a","x":0,"y":0,"w":3,"h":2}]`))

	s := NewStore(db)
	s.Load()

	if len(s.Widgets()) != 0 {
		t.Error("data tagged with a newer schema must not be loaded")
	}
}

func TestStore_LegacyDataWithoutSchemaTagLoads(t *testing.T) {
	db := kv.NewMemory()
	db.Set("dashboardWidgets", []byte(`[{"id":"a","type":"daily_stats","title":"x"}]`))
	db.Set("dashboardLayout", []byte(`[{"id":"a","x":0,"y":0,"w":3,"h":2}]`))

	s := NewStore(db)
	s.Load()

	if len(s.Widgets()) != 1 {
		t.Fatalf("legacy data should load, got %d widgets", len(s.Widgets()))
	}
}

func findLayout(t *testing.T, s *Store, id string) Layout {
	t.Helper()
	for _, l := range s.SavedLayouts() {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("layout %q not found", id)
	return Layout{}
}

func strPtr(s string) *string { return &s }
