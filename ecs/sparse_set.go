package ecs

// SparseSet is a cache-friendly storage for components keyed by entity id.
// Values are stored as pointers so systems mutate components in place.
type SparseSet[T any] struct {
	denseEntities []int
	denseValues   []*T
	sparse        []int
}

// Has returns true if the entity id exists in the set.
func (s *SparseSet[T]) Has(id int) bool {
	if s == nil || id <= 0 || id-1 >= len(s.sparse) {
		return false
	}
	idx := s.sparse[id-1]
	return idx >= 0 && idx < len(s.denseEntities) && s.denseEntities[idx] == id
}

// Get returns the component for id, or nil.
func (s *SparseSet[T]) Get(id int) *T {
	if !s.Has(id) {
		return nil
	}
	return s.denseValues[s.sparse[id-1]]
}

// Set inserts or replaces the component for id.
func (s *SparseSet[T]) Set(id int, v *T) {
	if s == nil || id <= 0 {
		return
	}
	for id-1 >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.Has(id) {
		s.denseValues[s.sparse[id-1]] = v
		return
	}
	s.denseEntities = append(s.denseEntities, id)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id-1] = len(s.denseEntities) - 1
}

// Remove deletes the component for id if present.
func (s *SparseSet[T]) Remove(id int) bool {
	if s == nil || !s.Has(id) {
		return false
	}
	idx := s.sparse[id-1]
	last := len(s.denseEntities) - 1
	lastID := s.denseEntities[last]

	s.denseEntities[idx] = s.denseEntities[last]
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[lastID-1] = idx

	s.denseValues[last] = nil
	s.denseEntities = s.denseEntities[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[id-1] = -1
	return true
}

// Len reports how many components are stored.
func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.denseEntities)
}

// snapshot copies the dense id list so callers may add or remove components
// while iterating.
func (s *SparseSet[T]) snapshot() []int {
	if s == nil || len(s.denseEntities) == 0 {
		return nil
	}
	return append([]int(nil), s.denseEntities...)
}

func (s *SparseSet[T]) remove(id int) {
	s.Remove(id)
}
