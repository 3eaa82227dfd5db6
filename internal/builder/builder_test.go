package builder

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jrzesz33/lex_provisioner/internal/lex"
	"github.com/jrzesz33/lex_provisioner/internal/lex/lextest"
)

type fixture struct {
	lex     *lextest.FakeLex
	lambda  *lextest.FakeLambda
	slots   *SlotTypeBuilder
	intents *IntentBuilder
	bots    *BotBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fakeLex := lextest.NewFakeLex()
	fakeLambda := lextest.NewFakeLambda()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := lex.NewClient(fakeLex, fakeLambda, lex.RetryPolicy{MaxAttempts: 2}, logger)
	intents := NewIntentBuilder(client, logger)

	return &fixture{
		lex:     fakeLex,
		lambda:  fakeLambda,
		slots:   NewSlotTypeBuilder(client, logger),
		intents: intents,
		bots:    NewBotBuilder(client, intents, logger),
	}
}
