package models

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const lambdaArn = "arn:aws:lambda:us-east-1:123456789123:function:GreetingLambda"

func cfnProperties() map[string]interface{} {
	return map[string]interface{}{
		"NamePrefix":   "pythontest",
		"ServiceToken": "arn:aws:lambda:us-east-1:123456789123:function:lex-provisioner",
		"loglevel":     "info",
		"description":  "friendly AI chatbot overlord",
		"locale":       "en-US",
		"messages": map[string]interface{}{
			"clarification":  "clarification statement",
			"abortStatement": "abort statement",
		},
		"intents": []interface{}{
			map[string]interface{}{
				"Name":        "greeting",
				"CodehookArn": lambdaArn,
				"Utterances":  []interface{}{"greetings my friend", "hello"},
				"maxAttempts": "5",
				"Plaintext": map[string]interface{}{
					"confirmation": "a confirmation",
					"rejection":    "a rejection",
				},
				"Slots": []interface{}{
					map[string]interface{}{
						"Name":       "name",
						"Type":       "AMAZON.Person",
						"Prompt":     "Great thanks, please enter your name.",
						"Utterances": []interface{}{"I am {name}", "My name is {name}"},
					},
					map[string]interface{}{
						"Name":       "size",
						"Type":       "pizzasize",
						"Prompt":     "Which size?",
						"Utterances": []interface{}{"a {size} one"},
					},
				},
			},
			map[string]interface{}{
				"Name":       "farewell",
				"Utterances": []interface{}{"farewell my friend"},
			},
		},
		"slotTypes": map[string]interface{}{
			"pizzasize": map[string]interface{}{
				"thick": []interface{}{"thick", "fat"},
				"thin":  []interface{}{"thin", "light"},
			},
		},
	}
}

func TestDecodeProperties(t *testing.T) {
	props, err := DecodeProperties(cfnProperties())
	if err != nil {
		t.Fatalf("DecodeProperties() error = %v", err)
	}

	if props.NamePrefix != "pythontest" {
		t.Errorf("NamePrefix = %v, want pythontest", props.NamePrefix)
	}
	if props.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", props.LogLevel)
	}
	if props.Messages == nil || props.Messages.AbortStatement != "abort statement" {
		t.Errorf("Messages = %+v", props.Messages)
	}
	if len(props.Intents) != 2 {
		t.Fatalf("len(Intents) = %d, want 2", len(props.Intents))
	}
	if props.Intents[0].MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5 from string input", props.Intents[0].MaxAttempts)
	}
	if props.Intents[0].Plaintext.Rejection != "a rejection" {
		t.Errorf("Plaintext = %+v", props.Intents[0].Plaintext)
	}
	want := map[string][]string{"thick": {"thick", "fat"}, "thin": {"thin", "light"}}
	if diff := cmp.Diff(want, props.SlotTypes["pizzasize"]); diff != "" {
		t.Errorf("slot type values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeProperties_Invalid(t *testing.T) {
	raw := map[string]interface{}{
		"intents": "not a list of intents",
	}
	_, err := DecodeProperties(raw)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("DecodeProperties() error = %v, want ErrValidation", err)
	}
}

func TestResourceProperties_Bot(t *testing.T) {
	props, err := DecodeProperties(cfnProperties())
	if err != nil {
		t.Fatalf("DecodeProperties() error = %v", err)
	}

	bot, err := props.Bot("LexBot")
	if err != nil {
		t.Fatalf("Bot() error = %v", err)
	}

	if bot.Name != "pythontestLexBot" {
		t.Errorf("Name = %v, want pythontestLexBot", bot.Name)
	}
	if diff := cmp.Diff([]string{"pythontestgreeting", "pythontestfarewell"}, bot.IntentNames()); diff != "" {
		t.Errorf("intent names mismatch (-want +got):\n%s", diff)
	}

	greeting := bot.Intents[0]
	if greeting.BotName != bot.Name {
		t.Errorf("BotName = %v, want %v", greeting.BotName, bot.Name)
	}
	if !greeting.HasCodehook() {
		t.Error("greeting should have a codehook")
	}
	if greeting.Slots[0].Type != "AMAZON.Person" {
		t.Errorf("built-in slot type = %v, want it unprefixed", greeting.Slots[0].Type)
	}
	if greeting.Slots[1].Type != "pythontestpizzasize" {
		t.Errorf("custom slot type = %v, want pythontestpizzasize", greeting.Slots[1].Type)
	}

	farewell := bot.Intents[1]
	if farewell.HasCodehook() {
		t.Error("farewell should not have a codehook")
	}
	if farewell.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want default %d", farewell.MaxAttempts, DefaultMaxAttempts)
	}
}

func TestResourceProperties_BotNoPrefix(t *testing.T) {
	raw := cfnProperties()
	delete(raw, "NamePrefix")

	props, err := DecodeProperties(raw)
	if err != nil {
		t.Fatalf("DecodeProperties() error = %v", err)
	}
	bot, err := props.Bot("LexBot")
	if err != nil {
		t.Fatalf("Bot() error = %v", err)
	}
	if bot.Name != "LexBot" {
		t.Errorf("Name = %v, want LexBot", bot.Name)
	}
	if bot.Intents[0].Slots[1].Type != "pizzasize" {
		t.Errorf("custom slot type = %v, want pizzasize", bot.Intents[0].Slots[1].Type)
	}
}

func TestResourceProperties_BotValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ResourceProperties)
	}{
		{
			name:   "missing messages",
			mutate: func(p *ResourceProperties) { p.Messages = nil },
		},
		{
			name:   "missing abort statement",
			mutate: func(p *ResourceProperties) { p.Messages.AbortStatement = "" },
		},
		{
			name:   "intent without utterances",
			mutate: func(p *ResourceProperties) { p.Intents[1].Utterances = nil },
		},
		{
			name:   "intent without name",
			mutate: func(p *ResourceProperties) { p.Intents[1].Name = "" },
		},
		{
			name:   "slot without utterances",
			mutate: func(p *ResourceProperties) { p.Intents[0].Slots[0].Utterances = nil },
		},
		{
			name:   "slot without type",
			mutate: func(p *ResourceProperties) { p.Intents[0].Slots[0].Type = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := DecodeProperties(cfnProperties())
			if err != nil {
				t.Fatalf("DecodeProperties() error = %v", err)
			}
			tt.mutate(props)

			_, err = props.Bot("LexBot")
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Bot() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestResourceProperties_BuildSlotTypes(t *testing.T) {
	props := &ResourceProperties{
		NamePrefix: "dev",
		SlotTypes: map[string]map[string][]string{
			"toppings":  {"cheese": {"cheddar"}},
			"pizzasize": {"thick": {"fat"}, "thin": {"light"}},
		},
	}

	slotTypes, err := props.BuildSlotTypes()
	if err != nil {
		t.Fatalf("BuildSlotTypes() error = %v", err)
	}
	if len(slotTypes) != 2 {
		t.Fatalf("len(SlotTypes) = %d, want 2", len(slotTypes))
	}
	if slotTypes[0].Name != "devpizzasize" || slotTypes[1].Name != "devtoppings" {
		t.Errorf("names = %v, %v", slotTypes[0].Name, slotTypes[1].Name)
	}
	if diff := cmp.Diff([]string{"thick", "thin"}, slotTypes[0].SortedValues()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"devpizzasize", "devtoppings"}, props.SlotTypeNames()); diff != "" {
		t.Errorf("SlotTypeNames mismatch (-want +got):\n%s", diff)
	}

	props.SlotTypes["empty"] = map[string][]string{}
	if _, err := props.BuildSlotTypes(); !errors.Is(err, ErrValidation) {
		t.Errorf("BuildSlotTypes() error = %v, want ErrValidation", err)
	}
}

func TestDeleteProperties(t *testing.T) {
	raw := map[string]interface{}{
		"NamePrefix": "dev",
		"loglevel":   "debug",
		"intents": []interface{}{
			map[string]interface{}{"Name": "OrderPizza", "Utterances": "not a list"},
			"garbage",
			map[string]interface{}{"Name": 42},
		},
		"slotTypes": map[string]interface{}{
			"pizzasize": "not a map",
			"toppings":  map[string]interface{}{"cheese": []interface{}{"cheddar"}},
		},
	}

	props := DeleteProperties(raw)
	if props.PrefixedName("PizzaBot") != "devPizzaBot" {
		t.Errorf("PrefixedName() = %q, want devPizzaBot", props.PrefixedName("PizzaBot"))
	}
	if props.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", props.LogLevel)
	}
	if diff := cmp.Diff([]string{"devOrderPizza"}, props.IntentNames()); diff != "" {
		t.Errorf("IntentNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"devpizzasize", "devtoppings"}, props.SlotTypeNames()); diff != "" {
		t.Errorf("SlotTypeNames mismatch (-want +got):\n%s", diff)
	}

	empty := DeleteProperties(map[string]interface{}{"intents": "OrderPizza", "slotTypes": []interface{}{"x"}})
	if len(empty.IntentNames()) != 0 || len(empty.SlotTypeNames()) != 0 {
		t.Errorf("malformed keys produced names: %v %v", empty.IntentNames(), empty.SlotTypeNames())
	}
	if DeleteProperties(nil).PrefixedName("PizzaBot") != "PizzaBot" {
		t.Error("nil properties should not add a prefix")
	}
}
