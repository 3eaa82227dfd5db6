package models

import "fmt"

// DefaultMaxAttempts is the prompt retry count used when an intent sets none
const DefaultMaxAttempts = 3

// Intent is the desired state of a Lex intent owned by a bot
type Intent struct {
	BotName     string
	Name        string
	CodehookArn string
	Utterances  []string
	Slots       []*Slot
	MaxAttempts int
	Plaintext   Plaintext
}

// NewIntent validates an intent definition. prefix is applied to the intent
// name and to custom slot types referenced by its slots.
func NewIntent(botName string, def IntentDefinition, prefix string) (*Intent, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: intent name is required", ErrValidation)
	}
	if len(def.Utterances) == 0 {
		return nil, fmt.Errorf("%w: utterances missing in intent %s", ErrValidation, def.Name)
	}

	slots := make([]*Slot, 0, len(def.Slots))
	for _, slotDef := range def.Slots {
		slot, err := NewSlot(slotDef, prefix)
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", def.Name, err)
		}
		slots = append(slots, slot)
	}

	maxAttempts := def.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Intent{
		BotName:     botName,
		Name:        prefix + def.Name,
		CodehookArn: def.CodehookArn,
		Utterances:  def.Utterances,
		Slots:       slots,
		MaxAttempts: maxAttempts,
		Plaintext:   def.Plaintext,
	}, nil
}

// HasCodehook reports whether the intent is fulfilled by a Lambda function
func (i *Intent) HasCodehook() bool {
	return i.CodehookArn != ""
}
