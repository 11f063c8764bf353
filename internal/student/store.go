package student

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrMissingID   = errors.New("record has no id")
	ErrDuplicateID = errors.New("duplicate record id")
)

// Store is an immutable, ordered set of records with unique ids.
type Store struct {
	records []Record
	index   map[string]int
}

// NewStore copies records into a new Store, preserving their order.
// Every record must carry a non-empty, unique id.
func NewStore(records ...Record) (*Store, error) {
	s := &Store{
		records: make([]Record, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}

	for i, r := range records {
		id := r.ID()
		if id == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrMissingID)
		}
		if _, exists := s.index[id]; exists {
			return nil, fmt.Errorf("record %d: %w: %q", i, ErrDuplicateID, id)
		}

		s.index[id] = len(s.records)
		s.records = append(s.records, r.Clone())
	}

	return s, nil
}

// Seed returns the three records the service ships with.
func Seed() []Record {
	return []Record{
		New("1", "John Doe", "Computer Science"),
		New("2", "Jane Smith", "Mathematics"),
		New("3", "Sam Brown", "Physics"),
	}
}

// NewDefaultStore returns a Store populated with Seed.
func NewDefaultStore() *Store {
	s, err := NewStore(Seed()...)
	if err != nil {
		panic(err)
	}
	return s
}

// All yields every record in insertion order. The sequence can be ranged
// over any number of times.
func (s *Store) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range s.records {
			if !yield(r.Clone()) {
				return
			}
		}
	}
}

// FindByID returns the record whose id equals id.
func (s *Store) FindByID(id string) (Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.records[i].Clone(), true
}

// Len reports the number of records.
func (s *Store) Len() int {
	return len(s.records)
}
