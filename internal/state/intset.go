package state

import (
	"encoding/json"
	"sort"
)

// IntSet holds warning thresholds already delivered today. It serializes
// as a JSON array so the state file stays readable by external tools;
// duplicates collapse and order is not significant.
type IntSet map[int]struct{}

func NewIntSet(values ...int) IntSet {
	s := make(IntSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s IntSet) Has(v int) bool {
	_, ok := s[v]
	return ok
}

func (s IntSet) Add(v int) {
	s[v] = struct{}{}
}

func (s IntSet) MarshalJSON() ([]byte, error) {
	values := make([]int, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Ints(values)
	return json.Marshal(values)
}

func (s *IntSet) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewIntSet(values...)
	return nil
}
