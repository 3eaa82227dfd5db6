package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice/types"

	"github.com/jrzesz33/lex_provisioner/internal/lex"
	"github.com/jrzesz33/lex_provisioner/internal/models"
)

const (
	codeHookMessageVersion = "1.0"
	slotMaxAttempts        = 3
)

var (
	// ErrPromptPairing is returned when only one half of a prompt pair is set
	ErrPromptPairing = errors.New("prompt pairing")
	// ErrConclusionWithFollowUp is returned when an intent has both a
	// conclusion statement and a follow up prompt
	ErrConclusionWithFollowUp = errors.New("conclusion and follow up prompt are mutually exclusive")
)

// IntentReference identifies a published intent version
type IntentReference struct {
	IntentName    string
	IntentVersion string
}

// IntentBuilder puts and deletes intents
type IntentBuilder struct {
	client *lex.Client
	logger *slog.Logger
}

// NewIntentBuilder creates a new intent builder
func NewIntentBuilder(client *lex.Client, logger *slog.Logger) *IntentBuilder {
	return &IntentBuilder{
		client: client,
		logger: logger,
	}
}

// PutIntent grants Lex access to the fulfillment hook, creates or updates the
// intent and publishes a version of it.
func (b *IntentBuilder) PutIntent(ctx context.Context, intent *models.Intent) (*IntentReference, error) {
	input, err := PutIntentRequest(intent)
	if err != nil {
		return nil, err
	}

	if intent.HasCodehook() {
		if err := b.grantInvoke(ctx, intent); err != nil {
			return nil, err
		}
	}

	exists, checksum, err := b.client.IntentExists(ctx, intent.Name)
	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "putting intent",
		slog.String("intent", intent.Name),
		slog.String("bot", intent.BotName),
		slog.Bool("exists", exists),
		slog.Int("slots", len(intent.Slots)),
	)

	out, err := b.client.PutIntent(ctx, input, checksum)
	if err != nil {
		return nil, err
	}

	version, err := b.client.CreateIntentVersion(ctx, intent.Name, aws.ToString(out.Checksum))
	if err != nil {
		return nil, err
	}

	return &IntentReference{
		IntentName:    intent.Name,
		IntentVersion: aws.ToString(version.Version),
	}, nil
}

// DeleteIntents deletes every named intent. Missing intents are skipped and
// every name is attempted; the failures are returned joined.
func (b *IntentBuilder) DeleteIntents(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		exists, _, err := b.client.IntentExists(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !exists {
			b.logger.InfoContext(ctx, "intent already absent", slog.String("intent", name))
			continue
		}
		if err := b.client.DeleteIntent(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *IntentBuilder) grantInvoke(ctx context.Context, intent *models.Intent) error {
	fn, err := arn.Parse(intent.CodehookArn)
	if err != nil {
		return fmt.Errorf("%w: invalid codehook arn %q for intent %s: %v",
			models.ErrValidation, intent.CodehookArn, intent.Name, err)
	}

	statementID := fmt.Sprintf("lex-%s-%s", fn.Region, intent.Name)
	sourceArn := arn.ARN{
		Partition: fn.Partition,
		Service:   "lex",
		Region:    fn.Region,
		AccountID: fn.AccountID,
		Resource:  fmt.Sprintf("intent:%s:*", intent.Name),
	}.String()

	_, err = b.client.AddInvokePermission(ctx, intent.CodehookArn, statementID, sourceArn)
	return err
}

// PutIntentRequest builds and validates the put request for an intent
func PutIntentRequest(intent *models.Intent) (*lexmodels.PutIntentInput, error) {
	text := intent.Plaintext
	if err := checkPair("confirmation", text.Confirmation, "rejection", text.Rejection); err != nil {
		return nil, fmt.Errorf("intent %s: %w", intent.Name, err)
	}
	if err := checkPair("followUpPrompt", text.FollowUpPrompt, "followUpRejection", text.FollowUpRejection); err != nil {
		return nil, fmt.Errorf("intent %s: %w", intent.Name, err)
	}
	if text.Conclusion != "" && text.FollowUpPrompt != "" {
		return nil, fmt.Errorf("intent %s: %w", intent.Name, ErrConclusionWithFollowUp)
	}

	input := &lexmodels.PutIntentInput{
		Name:             aws.String(intent.Name),
		Description:      aws.String(fmt.Sprintf("Intent %s for %s", intent.Name, intent.BotName)),
		SampleUtterances: intent.Utterances,
		Slots:            slots(intent.Slots),
	}

	if text.Confirmation != "" {
		input.ConfirmationPrompt = prompt(text.Confirmation, intent.MaxAttempts)
		input.RejectionStatement = statement(text.Rejection)
	}
	if text.FollowUpPrompt != "" {
		input.FollowUpPrompt = &lextypes.FollowUpPrompt{
			Prompt:             prompt(text.FollowUpPrompt, intent.MaxAttempts),
			RejectionStatement: statement(text.FollowUpRejection),
		}
	}
	if text.Conclusion != "" {
		input.ConclusionStatement = statement(text.Conclusion)
	}

	if intent.HasCodehook() {
		hook := &lextypes.CodeHook{
			Uri:            aws.String(intent.CodehookArn),
			MessageVersion: aws.String(codeHookMessageVersion),
		}
		input.DialogCodeHook = hook
		input.FulfillmentActivity = &lextypes.FulfillmentActivity{
			Type:     lextypes.FulfillmentActivityTypeCodeHook,
			CodeHook: hook,
		}
	} else {
		input.FulfillmentActivity = &lextypes.FulfillmentActivity{
			Type: lextypes.FulfillmentActivityTypeReturnIntent,
		}
	}

	return input, nil
}

func checkPair(firstKey, first, secondKey, second string) error {
	if (first == "") != (second == "") {
		return fmt.Errorf("%w: %s and %s must be set together or not at all", ErrPromptPairing, firstKey, secondKey)
	}
	return nil
}

func slots(defs []*models.Slot) []lextypes.Slot {
	if len(defs) == 0 {
		return nil
	}

	out := make([]lextypes.Slot, 0, len(defs))
	for i, s := range defs {
		slot := lextypes.Slot{
			Name:                   aws.String(s.Name),
			SlotConstraint:         lextypes.SlotConstraintRequired,
			SlotType:               aws.String(s.Type),
			Priority:               aws.Int32(int32(i + 1)),
			SampleUtterances:       s.Utterances,
			ValueElicitationPrompt: prompt(s.Prompt, slotMaxAttempts),
		}
		// built-in types are versionless
		if !s.IsBuiltIn() {
			slot.SlotTypeVersion = aws.String(lex.LatestVersion)
		}
		out = append(out, slot)
	}
	return out
}

func prompt(content string, maxAttempts int) *lextypes.Prompt {
	return &lextypes.Prompt{
		Messages:    plainText(content),
		MaxAttempts: aws.Int32(int32(maxAttempts)),
	}
}

func statement(content string) *lextypes.Statement {
	return &lextypes.Statement{Messages: plainText(content)}
}

func plainText(content string) []lextypes.Message {
	return []lextypes.Message{{
		ContentType: lextypes.ContentTypePlainText,
		Content:     aws.String(content),
	}}
}
