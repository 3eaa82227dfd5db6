// Package definition loads bot definition files used by lexctl.
//
// A definition file holds the same document as the Custom::LexBot resource
// properties, in YAML or JSON, with a top level name for the bot.
package definition

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jrzesz33/lex_provisioner/internal/builder"
	"github.com/jrzesz33/lex_provisioner/internal/models"
)

// Definition is a parsed and validated definition file
type Definition struct {
	Properties *models.ResourceProperties
	Bot        *models.Bot
	SlotTypes  []*models.SlotType
}

// LoadFile reads and validates the definition at path. prefix, when set,
// replaces the NamePrefix of the file.
func LoadFile(path, prefix string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition: %w", err)
	}
	defer f.Close()

	return Load(f, prefix)
}

// Load reads and validates a definition document
func Load(r io.Reader, prefix string) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: definition is empty", models.ErrValidation)
		}
		return nil, fmt.Errorf("%w: failed to parse definition: %v", models.ErrValidation, err)
	}

	props, err := models.DecodeProperties(raw)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		props.NamePrefix = prefix
	}

	return Validate(props)
}

// Validate checks props the way a Create event would, without calling AWS
func Validate(props *models.ResourceProperties) (*Definition, error) {
	if props.Name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}

	slotTypes, err := props.BuildSlotTypes()
	if err != nil {
		return nil, err
	}

	bot, err := props.Bot(props.Name)
	if err != nil {
		return nil, err
	}

	for _, intent := range bot.Intents {
		if _, err := builder.PutIntentRequest(intent); err != nil {
			return nil, err
		}
	}

	return &Definition{
		Properties: props,
		Bot:        bot,
		SlotTypes:  slotTypes,
	}, nil
}
