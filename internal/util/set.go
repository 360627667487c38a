package util

// Set is a collection of unique comparable values
type Set[T comparable] map[T]struct{}

// Add inserts a value into the set
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

// Remove deletes a value from the set
func (s Set[T]) Remove(v T) {
	delete(s, v)
}

// Contains reports whether the set holds the value
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}
