package scan

// SeenSet records image object ids already emitted during a run so the
// same embedded image is not extracted twice.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet returns an empty set
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Add records id and reports whether it was new
func (s *SeenSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id was recorded
func (s *SeenSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of recorded ids
func (s *SeenSet) Len() int { return len(s.ids) }

// Reset forgets every id
func (s *SeenSet) Reset() {
	clear(s.ids)
}
