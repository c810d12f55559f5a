package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outsquaremd/medidash/dashboard"
)

// getDashboard returns the full live dashboard state in one payload.
func (s *Server) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"widgets":          s.store.Widgets(),
		"layout":           s.store.Items(),
		"editMode":         s.store.IsEditMode(),
		"currentLayoutId":  s.store.CurrentLayoutID(),
		"savedLayoutCount": len(s.store.SavedLayouts()),
	})
}

// addWidget instantiates a widget from its registry definition and places it
// on the grid. Position is optional; size comes from the definition.
func (s *Server) addWidget(c *gin.Context) {
	var req struct {
		Type   string                  `json:"type" binding:"required"`
		Title  string                  `json:"title"`
		Config *dashboard.WidgetConfig `json:"config"`
		X      int                     `json:"x"`
		Y      int                     `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "widget type required"})
		return
	}

	def, ok := s.defs.Get(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown widget type: " + req.Type})
		return
	}

	title := req.Title
	if title == "" {
		title = def.Title
	}

	widget := dashboard.Widget{
		ID:     dashboard.NewID(),
		Type:   req.Type,
		Title:  title,
		Config: req.Config,
	}
	item := def.NewLayoutItem(widget.ID, req.X, req.Y)
	s.store.AddWidget(widget, item)

	c.JSON(http.StatusCreated, gin.H{"widget": widget, "item": item})
}

func (s *Server) updateWidget(c *gin.Context) {
	var patch dashboard.WidgetUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !s.store.UpdateWidget(c.Param("id"), patch) {
		c.JSON(http.StatusNotFound, gin.H{"error": "widget not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) removeWidget(c *gin.Context) {
	if !s.store.RemoveWidget(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "widget not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// replaceLayout accepts the full recomputed layout after a drag or resize.
func (s *Server) replaceLayout(c *gin.Context) {
	var items []dashboard.LayoutItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid layout payload"})
		return
	}

	s.store.ReplaceLayout(items)
	c.JSON(http.StatusOK, gin.H{"layout": s.store.Items()})
}

func (s *Server) toggleEditMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"editMode": s.store.ToggleEditMode()})
}

func (s *Server) listLayouts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"layouts":         s.store.SavedLayouts(),
		"currentLayoutId": s.store.CurrentLayoutID(),
	})
}

func (s *Server) saveLayout(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "layout name required"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"layout": s.store.SaveCurrentLayout(req.Name)})
}

func (s *Server) loadLayout(c *gin.Context) {
	if !s.store.LoadLayout(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "layout not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"widgets": s.store.Widgets(),
		"layout":  s.store.Items(),
	})
}

func (s *Server) deleteLayout(c *gin.Context) {
	if !s.store.DeleteLayout(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "layout not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) listDefinitions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"definitions": s.defs.List(),
		"categories":  s.defs.Categories(),
	})
}
