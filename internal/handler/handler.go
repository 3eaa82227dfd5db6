// Package handler maps CloudFormation lifecycle events for Custom::LexBot
// resources onto the Lex builders and reports the outcome.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/jrzesz33/lex_provisioner/internal/builder"
	"github.com/jrzesz33/lex_provisioner/internal/cfnresponse"
	"github.com/jrzesz33/lex_provisioner/internal/lex"
	"github.com/jrzesz33/lex_provisioner/internal/logging"
	"github.com/jrzesz33/lex_provisioner/internal/messaging"
	"github.com/jrzesz33/lex_provisioner/internal/models"
	"github.com/jrzesz33/lex_provisioner/internal/repository"
	appconfig "github.com/jrzesz33/lex_provisioner/pkg/config"
)

// Response data keys
const (
	DataBotName    = "BotName"
	DataBotVersion = "BotVersion"
)

// Outcome is the result of a handled event
type Outcome struct {
	BotName    string
	BotVersion string
}

// Data returns the response data reported to CloudFormation
func (o *Outcome) Data() map[string]interface{} {
	if o == nil || o.BotVersion == "" {
		return nil
	}
	return map[string]interface{}{
		DataBotName:    o.BotName,
		DataBotVersion: o.BotVersion,
	}
}

// Handler processes CloudFormation custom resource events
type Handler struct {
	config    *appconfig.Config
	lexAPI    lex.LexAPI
	lambdaAPI lex.LambdaAPI
	sender    cfnresponse.Sender
	retry     lex.RetryPolicy

	ledger    repository.ProvisioningRepository
	publisher messaging.OutcomePublisher

	logOutput io.Writer
	logStream string
	logger    *slog.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithLedger records every outcome in repo
func WithLedger(repo repository.ProvisioningRepository) Option {
	return func(h *Handler) {
		h.ledger = repo
	}
}

// WithPublisher announces every outcome through publisher
func WithPublisher(publisher messaging.OutcomePublisher) Option {
	return func(h *Handler) {
		h.publisher = publisher
	}
}

// WithRetryPolicy overrides the delete retry policy derived from the config
func WithRetryPolicy(policy lex.RetryPolicy) Option {
	return func(h *Handler) {
		h.retry = policy
	}
}

// WithLogOutput sets where loggers built for a loglevel override write
func WithLogOutput(w io.Writer) Option {
	return func(h *Handler) {
		h.logOutput = w
	}
}

// WithLogStream overrides the log stream named in response reasons
func WithLogStream(name string) Option {
	return func(h *Handler) {
		h.logStream = name
	}
}

// NewHandler creates a new handler instance
func NewHandler(
	cfg *appconfig.Config,
	lexAPI lex.LexAPI,
	lambdaAPI lex.LambdaAPI,
	sender cfnresponse.Sender,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		config:    cfg,
		lexAPI:    lexAPI,
		lambdaAPI: lambdaAPI,
		sender:    sender,
		retry: lex.RetryPolicy{
			MaxAttempts: cfg.DeleteMaxAttempts,
			Delay:       cfg.DeleteRetryDelay,
		},
		logOutput: os.Stdout,
		logStream: lambdacontext.LogStreamName,
		logger:    logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEvent processes one lifecycle event and sends exactly one response.
// The returned error is only set when the response could not be delivered.
func (h *Handler) HandleEvent(ctx context.Context, event cfn.Event) error {
	props, decodeErr := models.DecodeProperties(event.ResourceProperties)
	lenientErr := decodeErr
	if decodeErr != nil && event.RequestType == cfn.RequestDelete {
		// a resource whose properties never decoded still has to go away
		props, decodeErr = models.DeleteProperties(event.ResourceProperties), nil
	}
	logger := h.eventLogger(event, props)
	if lenientErr != nil && decodeErr == nil {
		logger.WarnContext(ctx, "deleting with names read from undecodable properties",
			slog.String("error", lenientErr.Error()),
		)
	}

	responder := cfnresponse.NewResponder(event, h.sender, h.logStream, logger)
	stop := responder.GuardDeadline(ctx)
	defer stop()

	logger.InfoContext(ctx, "handling lifecycle event",
		slog.String("resource_type", event.ResourceType),
		slog.String("stack_id", event.StackID),
	)

	var (
		outcome *Outcome
		err     = decodeErr
	)
	if err == nil {
		outcome, err = h.Process(ctx, event, props, logger)
	}

	var sendErr error
	if err != nil {
		logger.ErrorContext(ctx, "lifecycle event failed",
			slog.String("error", err.Error()),
		)
		sendErr = responder.Failure(ctx, err)
	} else {
		logger.InfoContext(ctx, "lifecycle event succeeded",
			slog.String("bot_name", outcome.BotName),
			slog.String("bot_version", outcome.BotVersion),
		)
		sendErr = responder.Success(ctx, outcome.Data())
	}

	record := models.NewProvisioningRecord(event.StackID, event.LogicalResourceID, event.RequestID,
		string(event.RequestType), h.config.Stage, botName(event, props))
	switch status, reason := responder.SentResponse(); {
	case status == cfn.StatusSuccess:
		record.MarkSucceeded(outcome.BotVersion)
	case status == cfn.StatusFailed:
		record.MarkFailed(reason)
	case err != nil:
		record.MarkFailed(err.Error())
	default:
		record.MarkFailed(fmt.Sprintf("response not delivered: %v", sendErr))
	}
	h.recordOutcome(ctx, record, logger)

	if errors.Is(sendErr, cfnresponse.ErrAlreadySent) {
		logger.WarnContext(ctx, "response was already sent by the deadline guard")
		return nil
	}
	if sendErr != nil {
		logger.ErrorContext(ctx, "failed to send cloudformation response",
			slog.String("error", sendErr.Error()),
		)
		return sendErr
	}
	return nil
}

// Process applies the event to Lex. Update is a full re-put.
func (h *Handler) Process(ctx context.Context, event cfn.Event, props *models.ResourceProperties, logger *slog.Logger) (*Outcome, error) {
	client := lex.NewClient(h.lexAPI, h.lambdaAPI, h.retry, logger)
	slotTypes := builder.NewSlotTypeBuilder(client, logger)
	intents := builder.NewIntentBuilder(client, logger)
	bots := builder.NewBotBuilder(client, intents, logger)

	switch event.RequestType {
	case cfn.RequestCreate, cfn.RequestUpdate:
		return h.put(ctx, event, props, slotTypes, bots)
	case cfn.RequestDelete:
		return h.delete(ctx, event, props, slotTypes, bots, logger)
	default:
		return nil, fmt.Errorf("unsupported request type %q", event.RequestType)
	}
}

func (h *Handler) put(ctx context.Context, event cfn.Event, props *models.ResourceProperties,
	slotTypes *builder.SlotTypeBuilder, bots *builder.BotBuilder) (*Outcome, error) {
	// validate everything before touching Lex
	types, err := props.BuildSlotTypes()
	if err != nil {
		return nil, err
	}
	bot, err := props.Bot(event.LogicalResourceID)
	if err != nil {
		return nil, err
	}

	for _, slotType := range types {
		if _, err := slotTypes.PutSlotType(ctx, slotType); err != nil {
			return nil, err
		}
	}

	version, err := bots.Put(ctx, bot)
	if err != nil {
		return nil, err
	}

	return &Outcome{BotName: version.Name, BotVersion: version.Version}, nil
}

func (h *Handler) delete(ctx context.Context, event cfn.Event, props *models.ResourceProperties,
	slotTypes *builder.SlotTypeBuilder, bots *builder.BotBuilder, logger *slog.Logger) (*Outcome, error) {
	name := props.PrefixedName(event.LogicalResourceID)

	var errs []error
	if err := bots.Delete(ctx, name, props.IntentNames()); err != nil {
		errs = append(errs, err)
	}

	for _, slotType := range props.SlotTypeNames() {
		deleted, err := slotTypes.DeleteSlotType(ctx, slotType)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !deleted {
			logger.WarnContext(ctx, "slot type left in place",
				slog.String("slot_type", slotType),
			)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Outcome{BotName: name}, nil
}

func (h *Handler) recordOutcome(ctx context.Context, record *models.ProvisioningRecord, logger *slog.Logger) {
	if h.ledger != nil {
		if err := h.ledger.SaveRecord(ctx, record); err != nil {
			logger.ErrorContext(ctx, "failed to save provisioning record",
				slog.String("record_id", record.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if h.publisher != nil {
		if err := h.publisher.PublishOutcome(ctx, record); err != nil {
			logger.ErrorContext(ctx, "failed to publish provisioning outcome",
				slog.String("record_id", record.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// eventLogger builds the logger for one event. The loglevel resource property
// overrides the level of the base logger.
func (h *Handler) eventLogger(event cfn.Event, props *models.ResourceProperties) *slog.Logger {
	logger := h.logger
	if props != nil {
		if level, ok := logging.ParseLevel(props.LogLevel); ok {
			logger = logging.NewLogger(h.logOutput, level)
		}
	}

	return logger.With(
		slog.String("request_id", event.RequestID),
		slog.String("logical_resource_id", event.LogicalResourceID),
		slog.String("request_type", string(event.RequestType)),
		slog.String("stage", h.config.Stage.String()),
	)
}

func botName(event cfn.Event, props *models.ResourceProperties) string {
	if props == nil {
		return event.LogicalResourceID
	}
	return props.PrefixedName(event.LogicalResourceID)
}

// NewInitFailureHandler returns a handler that reports initErr as FAILED for
// every event, so a broken deployment does not leave the stack waiting.
func NewInitFailureHandler(initErr error, sender cfnresponse.Sender, logger *slog.Logger) func(context.Context, cfn.Event) error {
	return func(ctx context.Context, event cfn.Event) error {
		logger.ErrorContext(ctx, "provisioner failed to initialize",
			slog.String("request_id", event.RequestID),
			slog.String("error", initErr.Error()),
		)
		responder := cfnresponse.NewResponder(event, sender, lambdacontext.LogStreamName, logger)
		return responder.Failure(ctx, fmt.Errorf("initialization failed: %w", initErr))
	}
}
