package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice/types"

	"github.com/jrzesz33/lex_provisioner/internal/lex"
	"github.com/jrzesz33/lex_provisioner/internal/models"
)

const (
	idleSessionTTLInSeconds  = 3000
	clarificationMaxAttempts = 1
)

// BotVersion identifies a published bot version
type BotVersion struct {
	Name    string
	Version string
}

// IntentPutter reconciles intents on behalf of the bot builder
type IntentPutter interface {
	PutIntent(ctx context.Context, intent *models.Intent) (*IntentReference, error)
	DeleteIntents(ctx context.Context, names []string) error
}

var _ IntentPutter = (*IntentBuilder)(nil)

// BotBuilder puts and deletes bots together with their intents
type BotBuilder struct {
	client  *lex.Client
	intents IntentPutter
	logger  *slog.Logger
}

// NewBotBuilder creates a new bot builder
func NewBotBuilder(client *lex.Client, intents IntentPutter, logger *slog.Logger) *BotBuilder {
	return &BotBuilder{
		client:  client,
		intents: intents,
		logger:  logger,
	}
}

// Put reconciles every intent of the bot, then the bot itself, and publishes
// a bot version.
func (b *BotBuilder) Put(ctx context.Context, bot *models.Bot) (*BotVersion, error) {
	refs := make([]lextypes.Intent, 0, len(bot.Intents))
	for _, intent := range bot.Intents {
		ref, err := b.intents.PutIntent(ctx, intent)
		if err != nil {
			return nil, fmt.Errorf("failed to put bot %s: %w", bot.Name, err)
		}
		refs = append(refs, lextypes.Intent{
			IntentName:    aws.String(ref.IntentName),
			IntentVersion: aws.String(ref.IntentVersion),
		})
	}

	exists, checksum, err := b.client.BotExists(ctx, bot.Name)
	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "putting bot",
		slog.String("bot", bot.Name),
		slog.Bool("exists", exists),
		slog.Int("intents", len(refs)),
	)

	out, err := b.client.PutBot(ctx, PutBotRequest(bot, refs), checksum)
	if err != nil {
		return nil, err
	}

	version, err := b.client.CreateBotVersion(ctx, bot.Name, aws.ToString(out.Checksum))
	if err != nil {
		return nil, err
	}

	return &BotVersion{
		Name:    bot.Name,
		Version: aws.ToString(version.Version),
	}, nil
}

// Delete removes the bot and its intents. Both steps always run; an error is
// returned when either failed.
func (b *BotBuilder) Delete(ctx context.Context, name string, intentNames []string) error {
	var errs []error

	if err := b.deleteBot(ctx, name); err != nil {
		errs = append(errs, err)
	}
	if err := b.intents.DeleteIntents(ctx, intentNames); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete intents of bot %s: %w", name, err))
	}

	if len(errs) > 0 {
		b.logger.ErrorContext(ctx, "bot delete incomplete",
			slog.String("bot", name),
			slog.Int("failures", len(errs)),
		)
		return errors.Join(errs...)
	}
	return nil
}

func (b *BotBuilder) deleteBot(ctx context.Context, name string) error {
	exists, _, err := b.client.BotExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		b.logger.InfoContext(ctx, "bot already absent", slog.String("bot", name))
		return nil
	}
	return b.client.DeleteBot(ctx, name)
}

// PutBotRequest builds the put request for a bot referencing the given intent versions
func PutBotRequest(bot *models.Bot, intents []lextypes.Intent) *lexmodels.PutBotInput {
	return &lexmodels.PutBotInput{
		Name:                    aws.String(bot.Name),
		Locale:                  lextypes.Locale(bot.Locale),
		Description:             aws.String(bot.Description),
		ChildDirected:           aws.Bool(false),
		Intents:                 intents,
		AbortStatement:          statement(bot.Messages.AbortStatement),
		ClarificationPrompt:     prompt(bot.Messages.Clarification, clarificationMaxAttempts),
		IdleSessionTTLInSeconds: aws.Int32(idleSessionTTLInSeconds),
		ProcessBehavior:         lextypes.ProcessBehaviorBuild,
	}
}
