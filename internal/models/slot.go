package models

import (
	"fmt"
	"strings"
)

// BuiltInSlotTypePrefix marks slot types provided by Lex itself
const BuiltInSlotTypePrefix = "AMAZON."

// Slot is a named parameter of an intent
type Slot struct {
	Name       string
	Type       string
	Prompt     string
	Utterances []string
}

// NewSlot validates a slot definition. Custom slot type references get the
// name prefix, built-in ones are left untouched.
func NewSlot(def SlotDefinition, prefix string) (*Slot, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: slot name is required", ErrValidation)
	}
	if def.Type == "" {
		return nil, fmt.Errorf("%w: slot type missing in slot %s", ErrValidation, def.Name)
	}
	if len(def.Utterances) == 0 {
		return nil, fmt.Errorf("%w: utterances missing in slot %s", ErrValidation, def.Name)
	}

	slotType := def.Type
	if !IsBuiltInSlotType(slotType) {
		slotType = prefix + slotType
	}

	return &Slot{
		Name:       def.Name,
		Type:       slotType,
		Prompt:     def.Prompt,
		Utterances: def.Utterances,
	}, nil
}

// IsBuiltIn reports whether the slot uses a built-in slot type
func (s *Slot) IsBuiltIn() bool {
	return IsBuiltInSlotType(s.Type)
}

// IsBuiltInSlotType reports whether name lives in the built-in namespace
func IsBuiltInSlotType(name string) bool {
	return strings.HasPrefix(name, BuiltInSlotTypePrefix)
}
