package physics

import (
	"slices"
	"sync"
)

// BodySet is an in-memory Scene. It is safe for concurrent use.
type BodySet struct {
	mu     sync.Mutex
	bodies []Body
	index  map[BodyID]int
}

func NewBodySet(bodies ...Body) *BodySet {
	s := &BodySet{index: make(map[BodyID]int)}
	for _, b := range bodies {
		s.Add(b)
	}
	return s
}

// Add inserts b, replacing any body with the same ID.
func (s *BodySet) Add(b Body) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[b.ID]; ok {
		s.bodies[i] = b
		return
	}
	s.index[b.ID] = len(s.bodies)
	s.bodies = append(s.bodies, b)
}

func (s *BodySet) Remove(id BodyID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.bodies = slices.Delete(s.bodies, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.bodies); j++ {
		s.index[s.bodies[j].ID] = j
	}
	return true
}

func (s *BodySet) Body(id BodyID) (Body, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Body{}, false
	}
	return s.bodies[i], true
}

func (s *BodySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

// Snapshot returns a copy of all bodies in insertion order.
func (s *BodySet) Snapshot() []Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bodies)
}

// Writeback stores the simulated state of every body that is still present.
// Bodies removed while the tick ran are dropped.
func (s *BodySet) Writeback(bodies []Body) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bodies {
		if i, ok := s.index[b.ID]; ok {
			s.bodies[i] = b
		}
	}
}
