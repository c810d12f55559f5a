package dashboard

import "sync"

// Definition describes a widget type available in the widget library: what it
// renders, how it is categorized, and its default grid footprint.
type Definition struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
	DefaultW    int    `json:"defaultWidth"`
	DefaultH    int    `json:"defaultHeight"`
	MinW        int    `json:"minWidth,omitempty"`
	MinH        int    `json:"minHeight,omitempty"`
	MaxW        int    `json:"maxWidth,omitempty"`
	MaxH        int    `json:"maxHeight,omitempty"`
}

// NewLayoutItem builds a layout item for a new instance of this definition,
// placed at (x, y) with the definition's default size and constraints.
func (d Definition) NewLayoutItem(id string, x, y int) LayoutItem {
	return LayoutItem{
		ID:   id,
		X:    x,
		Y:    y,
		W:    d.DefaultW,
		H:    d.DefaultH,
		MinW: d.MinW,
		MinH: d.MinH,
		MaxW: d.MaxW,
		MaxH: d.MaxH,
	}
}

// Registry holds the widget definitions the dashboard can instantiate.
// Rendering implementations live with the frontend; the registry only carries
// the metadata both sides agree on.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds or replaces a definition.
func (r *Registry) Register(d Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[d.Type]; !exists {
		r.order = append(r.order, d.Type)
	}
	r.defs[d.Type] = d
}

// Get returns the definition for a widget type.
func (r *Registry) Get(widgetType string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.defs[widgetType]
	return d, ok
}

// List returns all definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t])
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, t := range r.order {
		c := r.defs[t].Category
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Seed registers the stock widget set shipped with the practice dashboard.
func (r *Registry) Seed() {
	for _, d := range stockDefinitions {
		r.Register(d)
	}
}

var stockDefinitions = []Definition{
	{
		Type:        "todays_schedule",
		Title:       "Today's Schedule",
		Description: "List view of today's appointments with patient details",
		Category:    "Calendar & Scheduling",
		Icon:        "calendar",
		DefaultW:    6, DefaultH: 3,
		MinW: 4, MinH: 2,
	},
	{
		Type:        "daily_stats",
		Title:       "Daily Statistics",
		Description: "Overview of appointments and patient metrics",
		Category:    "Analytics & Reports",
		Icon:        "chart",
		DefaultW:    3, DefaultH: 2,
		MinW: 3, MinH: 2,
	},
	{
		Type:        "outstanding_items",
		Title:       "Outstanding Items",
		Description: "Open notes, pending labs, messages, and recalls",
		Category:    "Clinical Dashboard",
		Icon:        "alert",
		DefaultW:    4, DefaultH: 2,
		MinW: 3, MinH: 2,
	},
	{
		Type:        "quick_actions",
		Title:       "Quick Actions",
		Description: "Frequently used action buttons",
		Category:    "Quick Actions",
		Icon:        "bolt",
		DefaultW:    3, DefaultH: 2,
		MinW: 2, MinH: 2,
	},
	{
		Type:        "voice_note",
		Title:       "Voice Transcription",
		Description: "Real-time speech-to-text for clinical notes",
		Category:    "Clinical Dashboard",
		Icon:        "mic",
		DefaultW:    4, DefaultH: 3,
		MinW: 3, MinH: 2,
	},
}
