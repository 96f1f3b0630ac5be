package services

import (
	"sort"
	"sync"

	"homecrawl/models"
)

// LocationSet deduplicates location rows by location_id across one
// batch run. Last write wins on collision; rows for the same normalized
// address are expected to be identical anyway. Safe for concurrent use
// by the parse workers.
type LocationSet struct {
	mu   sync.Mutex
	rows map[string]models.LocationRow
}

func NewLocationSet() *LocationSet {
	return &LocationSet{rows: make(map[string]models.LocationRow)}
}

func (s *LocationSet) Add(row models.LocationRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.LocationID] = row
}

func (s *LocationSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Rows returns the deduplicated rows ordered by location_id so batch
// output files are stable across runs.
func (s *LocationSet) Rows() []models.LocationRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.LocationRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}
