package drag

import (
	"slices"
	"sync"
	"sync/atomic"
)

// ZoneKey identifies one insertion slot of one group.
type ZoneKey struct {
	GroupID  string
	Position int
}

// DropZone is a target region for inserting before the item at Position of GroupID.
// Bounds are in absolute content coordinates.
type DropZone struct {
	GroupID  string `json:"group_id"`
	Position int    `json:"position"`
	Bounds   Rect   `json:"bounds"`
}

// Key returns the registry key for z.
func (z DropZone) Key() ZoneKey {
	return ZoneKey{GroupID: z.GroupID, Position: z.Position}
}

// Target is a resolved drop location.
type Target struct {
	GroupID  string `json:"group_id"`
	Position int    `json:"position"`
}

// Registry is the spatial index of drop zones. It is safe for concurrent use; columns write
// while the active drag reads.
type Registry struct {
	mu      sync.RWMutex
	padding float64
	zones   map[ZoneKey]DropZone
	order   []ZoneKey

	generation atomic.Uint64
}

// NewRegistry constructs an empty registry with the given hit padding.
func NewRegistry(padding float64) *Registry {
	return &Registry{
		padding: max(padding, 0),
		zones:   map[ZoneKey]DropZone{},
	}
}

// SetPadding updates the hit padding used by QueryNearest.
func (r *Registry) SetPadding(padding float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.padding = max(padding, 0)
}

// Register stores z, overwriting any zone with the same key.
func (r *Registry) Register(z DropZone) {
	if z.GroupID == "" || z.Position < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := z.Key()
	if _, ok := r.zones[key]; !ok {
		r.order = append(r.order, key)
	}
	r.zones[key] = z
}

// RegisterScreen stores z after converting its screen-space bounds to content coordinates.
func (r *Registry) RegisterScreen(z DropZone, scrollOffset float64) {
	z.Bounds.X += scrollOffset
	r.Register(z)
}

// Unregister removes one zone. Unknown keys are ignored.
func (r *Registry) Unregister(groupID string, position int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(ZoneKey{GroupID: groupID, Position: position})
}

// UnregisterGroup removes positions 0..upTo of groupID.
func (r *Registry) UnregisterGroup(groupID string, upTo int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for position := 0; position <= upTo; position++ {
		r.unregisterLocked(ZoneKey{GroupID: groupID, Position: position})
	}
}

// unregisterLocked removes key; callers hold r.mu.
func (r *Registry) unregisterLocked(key ZoneKey) {
	if _, ok := r.zones[key]; !ok {
		return
	}
	delete(r.zones, key)
	if idx := slices.Index(r.order, key); idx >= 0 {
		r.order = slices.Delete(r.order, idx, idx+1)
	}
}

// Zone returns the zone stored under key.
func (r *Registry) Zone(key ZoneKey) (DropZone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	z, ok := r.zones[key]
	return z, ok
}

// Zones returns all zones in registration order.
func (r *Registry) Zones() []DropZone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DropZone, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.zones[key])
	}
	return out
}

// Len returns the number of registered zones.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}

// QueryNearest returns the zone whose padded bounds contain p and whose center is closest to p.
// Exact ties keep the earliest registered zone.
func (r *Registry) QueryNearest(p Point) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best     Target
		bestDist float64
		found    bool
	)
	for _, key := range r.order {
		z := r.zones[key]
		if !z.Bounds.Pad(r.padding).Contains(p) {
			continue
		}
		dist := z.Bounds.Center().Dist(p)
		if found && dist >= bestDist {
			continue
		}
		best = Target{GroupID: z.GroupID, Position: z.Position}
		bestDist = dist
		found = true
	}
	return best, found
}

// RequestRemeasure bumps the remeasure generation. Zone owners compare generations and
// re-register when theirs is behind.
func (r *Registry) RequestRemeasure() uint64 {
	return r.generation.Add(1)
}

// Generation returns the current remeasure generation.
func (r *Registry) Generation() uint64 {
	return r.generation.Load()
}
