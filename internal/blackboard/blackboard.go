// Package blackboard is the shared key/value state read by the
// behavior-driving layer. One instance per agent; the pipeline is the
// single writer for the action keys it owns.
package blackboard

import (
	"sync"

	"npcbrain/internal/model"
)

// Keys owned by the action pipeline
const (
	KeyIntent          = "Intent"
	KeyTargetLocation  = "TargetLocation"
	KeyTargetID        = "TargetId"
	KeyTargetType      = "TargetType"
	KeySpeakText       = "SpeakText"
	KeyConfidence      = "Confidence"
	KeyMontageName     = "MontageName"
	KeyMontageSection  = "MontageSection"
	KeyMontagePlayRate = "MontagePlayRate"
	KeyMontageLoop     = "MontageLoop"
)

// actionKeys is every pipeline-owned key, for the clear-before-write pass
var actionKeys = []string{
	KeyIntent,
	KeyTargetLocation,
	KeyTargetID,
	KeyTargetType,
	KeySpeakText,
	KeyConfidence,
	KeyMontageName,
	KeyMontageSection,
	KeyMontagePlayRate,
	KeyMontageLoop,
}

// Blackboard is one agent's state store
type Blackboard struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty blackboard
func New() *Blackboard {
	return &Blackboard{
		values: make(map[string]any),
	}
}

// SetString sets a string value
func (b *Blackboard) SetString(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// SetVector sets a world-position value
func (b *Blackboard) SetVector(key string, value model.Vector3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// SetFloat sets a float value
func (b *Blackboard) SetFloat(key string, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// SetBool sets a bool value
func (b *Blackboard) SetBool(key string, value bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// GetString returns a string value and whether it was set
func (b *Blackboard) GetString(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key].(string)
	return v, ok
}

// GetVector returns a world-position value and whether it was set
func (b *Blackboard) GetVector(key string) (model.Vector3, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key].(model.Vector3)
	return v, ok
}

// GetFloat returns a float value and whether it was set
func (b *Blackboard) GetFloat(key string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key].(float64)
	return v, ok
}

// GetBool returns a bool value and whether it was set
func (b *Blackboard) GetBool(key string) (bool, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key].(bool)
	return v, ok
}

// Has reports whether a key is set
func (b *Blackboard) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.values[key]
	return ok
}

// Clear removes one key
func (b *Blackboard) Clear(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

// ClearActionKeys removes every pipeline-owned key, leaving any
// game-specific keys untouched
func (b *Blackboard) ClearActionKeys() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range actionKeys {
		delete(b.values, key)
	}
}

// Snapshot returns a copy of the current contents for inspection
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Manager hands out per-agent blackboards
type Manager struct {
	mu     sync.Mutex
	boards map[string]*Blackboard
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{
		boards: make(map[string]*Blackboard),
	}
}

// For returns the blackboard for an agent, creating it on first use
func (m *Manager) For(agentID string) *Blackboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	bb, ok := m.boards[agentID]
	if !ok {
		bb = New()
		m.boards[agentID] = bb
	}
	return bb
}

// Agents lists the agents that currently have a blackboard
func (m *Manager) Agents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.boards))
	for id := range m.boards {
		out = append(out, id)
	}
	return out
}
