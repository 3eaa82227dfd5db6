package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// ErrValidation is wrapped by every definition validation failure
var ErrValidation = errors.New("invalid lex definition")

// Messages holds the bot level message templates
type Messages struct {
	Clarification  string `mapstructure:"clarification" json:"clarification" yaml:"clarification"`
	AbortStatement string `mapstructure:"abortStatement" json:"abortStatement" yaml:"abortStatement"`
}

// Plaintext holds the optional plain text prompts of an intent
type Plaintext struct {
	Confirmation      string `mapstructure:"confirmation" json:"confirmation,omitempty" yaml:"confirmation,omitempty"`
	Rejection         string `mapstructure:"rejection" json:"rejection,omitempty" yaml:"rejection,omitempty"`
	Conclusion        string `mapstructure:"conclusion" json:"conclusion,omitempty" yaml:"conclusion,omitempty"`
	FollowUpPrompt    string `mapstructure:"followUpPrompt" json:"followUpPrompt,omitempty" yaml:"followUpPrompt,omitempty"`
	FollowUpRejection string `mapstructure:"followUpRejection" json:"followUpRejection,omitempty" yaml:"followUpRejection,omitempty"`
}

// SlotDefinition is a slot as declared in the resource properties
type SlotDefinition struct {
	Name       string   `mapstructure:"Name" json:"Name" yaml:"Name"`
	Type       string   `mapstructure:"Type" json:"Type" yaml:"Type"`
	Prompt     string   `mapstructure:"Prompt" json:"Prompt" yaml:"Prompt"`
	Utterances []string `mapstructure:"Utterances" json:"Utterances" yaml:"Utterances"`
}

// IntentDefinition is an intent as declared in the resource properties
type IntentDefinition struct {
	Name        string           `mapstructure:"Name" json:"Name" yaml:"Name"`
	CodehookArn string           `mapstructure:"CodehookArn" json:"CodehookArn,omitempty" yaml:"CodehookArn,omitempty"`
	Utterances  []string         `mapstructure:"Utterances" json:"Utterances" yaml:"Utterances"`
	MaxAttempts int              `mapstructure:"maxAttempts" json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
	Plaintext   Plaintext        `mapstructure:"Plaintext" json:"Plaintext" yaml:"Plaintext"`
	Slots       []SlotDefinition `mapstructure:"Slots" json:"Slots,omitempty" yaml:"Slots,omitempty"`
}

// ResourceProperties is the payload of a Custom::LexBot resource. The same
// document is used by definition files, where Name carries the bot name.
type ResourceProperties struct {
	Name        string                         `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	NamePrefix  string                         `mapstructure:"NamePrefix" json:"NamePrefix,omitempty" yaml:"NamePrefix,omitempty"`
	LogLevel    string                         `mapstructure:"loglevel" json:"loglevel,omitempty" yaml:"loglevel,omitempty"`
	Description string                         `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Locale      string                         `mapstructure:"locale" json:"locale,omitempty" yaml:"locale,omitempty"`
	Messages    *Messages                      `mapstructure:"messages" json:"messages,omitempty" yaml:"messages,omitempty"`
	Intents     []IntentDefinition             `mapstructure:"intents" json:"intents" yaml:"intents"`
	SlotTypes   map[string]map[string][]string `mapstructure:"slotTypes" json:"slotTypes,omitempty" yaml:"slotTypes,omitempty"`
}

// DecodeProperties converts a raw property map into ResourceProperties.
// CloudFormation delivers every scalar as a string, so decoding is weakly typed.
func DecodeProperties(raw map[string]interface{}) (*ResourceProperties, error) {
	var props ResourceProperties
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create properties decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode resource properties: %v", ErrValidation, err)
	}
	return &props, nil
}

// PrefixedName applies the stack name prefix to a resource name
func (p *ResourceProperties) PrefixedName(name string) string {
	return p.NamePrefix + name
}

// Bot builds the validated bot described by the properties. name is the
// unprefixed bot name; the prefix is applied to the bot, its intents and any
// custom slot type referenced by their slots.
func (p *ResourceProperties) Bot(name string) (*Bot, error) {
	botName := p.PrefixedName(name)

	intents := make([]*Intent, 0, len(p.Intents))
	for _, def := range p.Intents {
		intent, err := NewIntent(botName, def, p.NamePrefix)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}

	return NewBot(botName, intents, p.Messages, p.Locale, p.Description)
}

// IntentNames returns the prefixed intent names without validating the definitions
func (p *ResourceProperties) IntentNames() []string {
	names := make([]string, 0, len(p.Intents))
	for _, def := range p.Intents {
		names = append(names, p.PrefixedName(def.Name))
	}
	return names
}

// BuildSlotTypes validates and builds the prefixed slot types, ordered by name
func (p *ResourceProperties) BuildSlotTypes() ([]*SlotType, error) {
	return NewSlotTypes(p.SlotTypes, p.NamePrefix)
}

// SlotTypeNames returns the prefixed slot type names, ordered
func (p *ResourceProperties) SlotTypeNames() []string {
	names := make([]string, 0, len(p.SlotTypes))
	for name := range p.SlotTypes {
		names = append(names, p.PrefixedName(name))
	}
	sort.Strings(names)
	return names
}

// DeleteProperties reads only the names a delete needs. It never fails: keys
// with an unexpected shape are skipped, so a resource whose definition never
// decoded can still be removed.
func DeleteProperties(raw map[string]interface{}) *ResourceProperties {
	props := &ResourceProperties{}
	if raw == nil {
		return props
	}

	props.NamePrefix, _ = raw["NamePrefix"].(string)
	props.LogLevel, _ = raw["loglevel"].(string)

	if intents, ok := raw["intents"].([]interface{}); ok {
		for _, item := range intents {
			def, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if name, ok := def["Name"].(string); ok && name != "" {
				props.Intents = append(props.Intents, IntentDefinition{Name: name})
			}
		}
	}

	if slotTypes, ok := raw["slotTypes"].(map[string]interface{}); ok {
		props.SlotTypes = make(map[string]map[string][]string, len(slotTypes))
		for name := range slotTypes {
			if name != "" {
				props.SlotTypes[name] = nil
			}
		}
	}

	return props
}
