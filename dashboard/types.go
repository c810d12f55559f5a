// Package dashboard owns the widget canvas state: placed widgets, their grid
// positions, edit mode, and named layout snapshots.
package dashboard

import (
	"time"

	"github.com/google/uuid"
)

// WidgetConfig holds optional per-widget display settings.
type WidgetConfig struct {
	RefreshRate int            `json:"refreshRate,omitempty"` // seconds between refreshes
	DisplayMode string         `json:"displayMode,omitempty"` // "compact", "detailed", "list", "grid"
	Filters     map[string]any `json:"filters,omitempty"`
}

// Widget is a placeable dashboard element. ID is generated at creation time
// and stable thereafter; Type selects a rendering implementation from the
// definition registry.
type Widget struct {
	ID     string        `json:"id"`
	Type   string        `json:"type"`
	Title  string        `json:"title"`
	Config *WidgetConfig `json:"config,omitempty"`
}

// LayoutItem is the grid position and size record paired one-to-one with a
// widget. Coordinates are in abstract column/row units.
type LayoutItem struct {
	ID   string `json:"id"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW,omitempty"`
	MinH int    `json:"minH,omitempty"`
	MaxW int    `json:"maxW,omitempty"`
	MaxH int    `json:"maxH,omitempty"`
}

// Layout is a named, immutable snapshot of widgets plus grid items, saved for
// later restoration. It is deep-copied at save time and never shares memory
// with live state.
type Layout struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Widgets   []Widget     `json:"widgets"`
	Items     []LayoutItem `json:"layout"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// WidgetUpdate carries partial widget fields. Nil fields are left unchanged.
type WidgetUpdate struct {
	Type   *string       `json:"type,omitempty"`
	Title  *string       `json:"title,omitempty"`
	Config *WidgetConfig `json:"config,omitempty"`
}

// NewID returns a fresh unique id for widgets and snapshots. The store does
// not check uniqueness; callers that mint their own ids must guarantee it.
func NewID() string {
	return uuid.NewString()
}

func cloneConfig(c *WidgetConfig) *WidgetConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.Filters != nil {
		out.Filters = make(map[string]any, len(c.Filters))
		for k, v := range c.Filters {
			out.Filters[k] = v
		}
	}
	return &out
}

func cloneWidgets(ws []Widget) []Widget {
	out := make([]Widget, len(ws))
	for i, w := range ws {
		out[i] = w
		out[i].Config = cloneConfig(w.Config)
	}
	return out
}

func cloneItems(items []LayoutItem) []LayoutItem {
	out := make([]LayoutItem, len(items))
	copy(out, items)
	return out
}
