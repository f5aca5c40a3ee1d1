package ingest

// Sequence hands out chunk identifiers 1, 2, 3, ... It belongs to a single
// ingestion run and is not safe for concurrent use.
type Sequence struct {
	last int64
}

// Next returns the next identifier.
func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Last returns the most recently issued identifier, or 0 if none.
func (s *Sequence) Last() int64 {
	return s.last
}
