package dashboard

import "testing"

func TestRegistry_Seed(t *testing.T) {
	r := NewRegistry()
	r.Seed()

	defs := r.List()
	if len(defs) != 5 {
		t.Fatalf("stock definitions = %d, want 5", len(defs))
	}

	d, ok := r.Get("voice_note")
	if !ok {
		t.Fatal("voice_note definition missing")
	}
	if d.Category != "Clinical Dashboard" {
		t.Errorf("category = %q, want %q", d.Category, "Clinical Dashboard")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{Type: "custom", Title: "One", DefaultW: 2, DefaultH: 2})
	r.Register(Definition{Type: "custom", Title: "Two", DefaultW: 3, DefaultH: 2})

	if got := len(r.List()); got != 1 {
		t.Fatalf("definitions = %d, want 1", got)
	}
	d, _ := r.Get("custom")
	if d.Title != "Two" {
		t.Errorf("title = %q, want replacement", d.Title)
	}
}

func TestRegistry_Categories(t *testing.T) {
	r := NewRegistry()
	r.Seed()

	categories := r.Categories()
	want := map[string]bool{
		"Calendar & Scheduling": true,
		"Analytics & Reports":   true,
		"Clinical Dashboard":    true,
		"Quick Actions":         true,
	}
	if len(categories) != len(want) {
		t.Fatalf("categories = %v, want %d distinct", categories, len(want))
	}
	for _, c := range categories {
		if !want[c] {
			t.Errorf("unexpected category %q", c)
		}
	}
}

func TestDefinition_NewLayoutItem(t *testing.T) {
	r := NewRegistry()
	r.Seed()

	d, _ := r.Get("todays_schedule")
	item := d.NewLayoutItem("w1", 2, 4)

	if item.ID != "w1" || item.X != 2 || item.Y != 4 {
		t.Errorf("placement = %+v, want id w1 at (2,4)", item)
	}
	if item.W != d.DefaultW || item.H != d.DefaultH {
		t.Errorf("size = %dx%d, want defaults %dx%d", item.W, item.H, d.DefaultW, d.DefaultH)
	}
	if item.MinW != d.MinW || item.MinH != d.MinH {
		t.Errorf("constraints = %+v, want mins carried over", item)
	}
}
