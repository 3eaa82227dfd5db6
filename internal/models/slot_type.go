package models

import (
	"fmt"
	"sort"
)

// SlotType is an enumeration of canonical values and their synonyms
type SlotType struct {
	Name   string
	Values map[string][]string
}

// NewSlotTypes builds slot types from the name -> value -> synonyms mapping,
// ordered by name so reconciliation is deterministic.
func NewSlotTypes(defs map[string]map[string][]string, prefix string) ([]*SlotType, error) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	slotTypes := make([]*SlotType, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: slot type name is required", ErrValidation)
		}
		values := defs[name]
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: slot type %s has no values", ErrValidation, name)
		}
		slotTypes = append(slotTypes, &SlotType{
			Name:   prefix + name,
			Values: values,
		})
	}
	return slotTypes, nil
}

// SortedValues returns the canonical values in lexical order
func (s *SlotType) SortedValues() []string {
	values := make([]string, 0, len(s.Values))
	for value := range s.Values {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
