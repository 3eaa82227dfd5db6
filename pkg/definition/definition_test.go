package definition

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jrzesz33/lex_provisioner/internal/builder"
	"github.com/jrzesz33/lex_provisioner/internal/models"
)

const pizzaYAML = `
name: PizzaBot
NamePrefix: dev
description: pizza ordering bot
messages:
  clarification: Sorry, can you repeat that?
  abortStatement: Sorry, I could not understand.
intents:
  - Name: OrderPizza
    CodehookArn: arn:aws:lambda:us-east-1:123456789012:function:pizza
    maxAttempts: 2
    Utterances:
      - I want a pizza
      - order a {size} pizza
    Plaintext:
      confirmation: Order it?
      rejection: Okay, cancelled
    Slots:
      - Name: size
        Type: pizzasize
        Prompt: What size?
        Utterances:
          - a {size} one
slotTypes:
  pizzasize:
    small: [little]
    large: [big, huge]
`

func TestLoadYAML(t *testing.T) {
	def, err := Load(strings.NewReader(pizzaYAML), "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if def.Bot.Name != "devPizzaBot" {
		t.Errorf("bot name = %q, want devPizzaBot", def.Bot.Name)
	}
	if def.Bot.Locale != models.DefaultLocale {
		t.Errorf("locale = %q, want default", def.Bot.Locale)
	}
	if diff := cmp.Diff([]string{"devOrderPizza"}, def.Bot.IntentNames()); diff != "" {
		t.Errorf("intent names mismatch (-want +got):\n%s", diff)
	}
	intent := def.Bot.Intents[0]
	if intent.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", intent.MaxAttempts)
	}
	if intent.Slots[0].Type != "devpizzasize" {
		t.Errorf("slot type = %q, want devpizzasize", intent.Slots[0].Type)
	}
	if len(def.SlotTypes) != 1 || def.SlotTypes[0].Name != "devpizzasize" {
		t.Errorf("slot types = %+v", def.SlotTypes)
	}
}

func TestLoadJSONWithPrefixOverride(t *testing.T) {
	doc := `{
  "name": "Greeter",
  "NamePrefix": "dev",
  "messages": {"clarification": "Pardon?", "abortStatement": "Bye"},
  "intents": [{"Name": "greeting", "Utterances": ["hi", "hello"]}]
}`
	def, err := Load(strings.NewReader(doc), "qa")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if def.Bot.Name != "qaGreeter" {
		t.Errorf("bot name = %q, want qaGreeter", def.Bot.Name)
	}
	if def.Bot.Intents[0].Name != "qagreeting" {
		t.Errorf("intent name = %q, want qagreeting", def.Bot.Intents[0].Name)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "empty", doc: "", wantErr: models.ErrValidation},
		{name: "not yaml", doc: "name: [unterminated", wantErr: models.ErrValidation},
		{
			name:    "missing name",
			doc:     strings.Replace(pizzaYAML, "name: PizzaBot", "", 1),
			wantErr: models.ErrValidation,
		},
		{
			name:    "missing messages",
			doc:     "name: b\nintents:\n  - Name: i\n    Utterances: [hi]\n",
			wantErr: models.ErrValidation,
		},
		{
			name:    "unpaired prompt",
			doc:     strings.Replace(pizzaYAML, "      rejection: Okay, cancelled\n", "", 1),
			wantErr: builder.ErrPromptPairing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc), "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pizza.yaml")
	if err := os.WriteFile(path, []byte(pizzaYAML), 0o600); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}

	if _, err := LoadFile(path, ""); err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}
