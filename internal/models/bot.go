package models

import "fmt"

// DefaultLocale is used when the definition does not name one
const DefaultLocale = "en-US"

// Bot is the desired state of a Lex bot for a single reconciliation
type Bot struct {
	Name        string
	Intents     []*Intent
	Messages    Messages
	Locale      string
	Description string
}

// NewBot validates and builds a bot
func NewBot(name string, intents []*Intent, messages *Messages, locale, description string) (*Bot, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: bot name is required", ErrValidation)
	}
	if messages == nil {
		return nil, fmt.Errorf("%w: messages missing in bot %s", ErrValidation, name)
	}
	if messages.Clarification == "" || messages.AbortStatement == "" {
		return nil, fmt.Errorf("%w: bot %s needs both clarification and abortStatement messages", ErrValidation, name)
	}
	if locale == "" {
		locale = DefaultLocale
	}

	return &Bot{
		Name:        name,
		Intents:     intents,
		Messages:    *messages,
		Locale:      locale,
		Description: description,
	}, nil
}

// IntentNames returns the names of the bot's intents in declaration order
func (b *Bot) IntentNames() []string {
	names := make([]string, 0, len(b.Intents))
	for _, intent := range b.Intents {
		names = append(names, intent.Name)
	}
	return names
}
