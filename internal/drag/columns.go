package drag

// ColumnZones owns the drop zones of one mounted column.
// Slot i is the insertion point before item i; slot n (after the last item, or the empty
// placeholder) appends.
type ColumnZones struct {
	registry   *Registry
	groupID    string
	registered int
	generation uint64
}

// NewColumnZones binds a column to registry.
func NewColumnZones(registry *Registry, groupID string) *ColumnZones {
	return &ColumnZones{registry: registry, groupID: groupID}
}

// GroupID returns the bound group id.
func (c *ColumnZones) GroupID() string {
	return c.groupID
}

// Sync registers one zone per screen-space slot rect. When the slot count changes every
// previously known position is dropped first, so shrinking columns leave no stale zones.
func (c *ColumnZones) Sync(slots []Rect, scrollOffset float64) {
	if c == nil || c.registry == nil {
		return
	}
	if len(slots) != c.registered {
		c.registry.UnregisterGroup(c.groupID, max(c.registered, len(slots)))
	}
	for position, bounds := range slots {
		c.registry.RegisterScreen(DropZone{GroupID: c.groupID, Position: position, Bounds: bounds}, scrollOffset)
	}
	c.registered = len(slots)
	c.generation = c.registry.Generation()
}

// Stale reports whether a remeasure was requested since the last Sync.
func (c *ColumnZones) Stale() bool {
	if c == nil || c.registry == nil {
		return false
	}
	return c.generation != c.registry.Generation()
}

// Unmount removes every zone the column registered.
func (c *ColumnZones) Unmount() {
	if c == nil || c.registry == nil {
		return
	}
	c.registry.UnregisterGroup(c.groupID, c.registered)
	c.registered = 0
}
