package service

import (
	"log"
	"strings"
	"sync"

	"npcbrain/internal/model"
	"npcbrain/internal/utils"
)

// NavPointRegistry maps named world locations to coordinates. It backs the
// NameResolver capability used by action normalization: players say "the
// fountain", level designers register "Fountain Square".
type NavPointRegistry struct {
	mu     sync.RWMutex
	points []model.NavPoint
}

// NewNavPointRegistry creates an empty registry
func NewNavPointRegistry() *NavPointRegistry {
	return &NavPointRegistry{}
}

// Register adds or replaces a nav point by name
func (r *NavPointRegistry) Register(point model.NavPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.points {
		if strings.EqualFold(existing.Name, point.Name) {
			r.points[i] = point
			return
		}
	}
	r.points = append(r.points, point)
}

// List returns all registered nav points
func (r *NavPointRegistry) List() []model.NavPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.NavPoint, len(r.points))
	copy(out, r.points)
	return out
}

// ResolveNavPoint implements NameResolver. Resolution order: exact name,
// declared aliases, then fuzzy match against the registered name.
func (r *NavPointRegistry) ResolveNavPoint(name string) (model.Vector3, bool) {
	if strings.TrimSpace(name) == "" {
		return model.Vector3{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.points {
		if strings.EqualFold(p.Name, name) {
			return p.Position, true
		}
	}

	for _, p := range r.points {
		for _, alias := range p.Aliases {
			if strings.EqualFold(alias, name) {
				return p.Position, true
			}
		}
	}

	for _, p := range r.points {
		if utils.FuzzyMatchNavPoint(name, p.Name) {
			log.Printf("[NavPoints] Fuzzy-matched '%s' to nav point '%s'", name, p.Name)
			return p.Position, true
		}
	}

	return model.Vector3{}, false
}
