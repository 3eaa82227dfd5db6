package lex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
)

// Client is the resource client facade shared by the builders
type Client struct {
	lex    LexAPI
	lambda LambdaAPI
	retry  RetryPolicy
	logger *slog.Logger
}

// NewClient creates a new resource client facade
func NewClient(lexAPI LexAPI, lambdaAPI LambdaAPI, retry RetryPolicy, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		lex:    lexAPI,
		lambda: lambdaAPI,
		retry:  retry,
		logger: logger,
	}
}

// BotExists looks up the $LATEST bot and returns its checksum
func (c *Client) BotExists(ctx context.Context, name string) (bool, string, error) {
	return c.exists(ctx, "bot", name, func(ctx context.Context) (*string, error) {
		out, err := c.lex.GetBot(ctx, &lexmodels.GetBotInput{
			Name:           aws.String(name),
			VersionOrAlias: aws.String(LatestVersion),
		})
		if err != nil {
			return nil, err
		}
		return out.Checksum, nil
	})
}

// IntentExists looks up the $LATEST intent and returns its checksum
func (c *Client) IntentExists(ctx context.Context, name string) (bool, string, error) {
	return c.exists(ctx, "intent", name, func(ctx context.Context) (*string, error) {
		out, err := c.lex.GetIntent(ctx, &lexmodels.GetIntentInput{
			Name:    aws.String(name),
			Version: aws.String(LatestVersion),
		})
		if err != nil {
			return nil, err
		}
		return out.Checksum, nil
	})
}

// SlotTypeExists looks up the $LATEST slot type and returns its checksum
func (c *Client) SlotTypeExists(ctx context.Context, name string) (bool, string, error) {
	return c.exists(ctx, "slot_type", name, func(ctx context.Context) (*string, error) {
		out, err := c.lex.GetSlotType(ctx, &lexmodels.GetSlotTypeInput{
			Name:    aws.String(name),
			Version: aws.String(LatestVersion),
		})
		if err != nil {
			return nil, err
		}
		return out.Checksum, nil
	})
}

// PutBot creates the bot when checksum is empty and updates it otherwise
func (c *Client) PutBot(ctx context.Context, input *lexmodels.PutBotInput, checksum string) (*lexmodels.PutBotOutput, error) {
	input.Checksum = checksumParam(checksum)
	out, err := c.lex.PutBot(ctx, input)
	if err != nil {
		return nil, c.putFailed(ctx, "bot", aws.ToString(input.Name), checksum, err)
	}
	c.putSucceeded(ctx, "bot", aws.ToString(out.Name), checksum, out.Checksum, out.Version)
	return out, nil
}

// CreateBotVersion publishes the bot state identified by checksum
func (c *Client) CreateBotVersion(ctx context.Context, name, checksum string) (*lexmodels.CreateBotVersionOutput, error) {
	out, err := c.lex.CreateBotVersion(ctx, &lexmodels.CreateBotVersionInput{
		Name:     aws.String(name),
		Checksum: checksumParam(checksum),
	})
	if err != nil {
		return nil, c.versionFailed(ctx, "bot", name, err)
	}
	c.versionCreated(ctx, "bot", name, out.Version)
	return out, nil
}

// DeleteBot deletes the bot under the retry policy. A missing bot is success.
func (c *Client) DeleteBot(ctx context.Context, name string) error {
	return c.remove(ctx, "bot", name, nil, func(ctx context.Context) error {
		_, err := c.lex.DeleteBot(ctx, &lexmodels.DeleteBotInput{Name: aws.String(name)})
		return err
	})
}

// PutIntent creates the intent when checksum is empty and updates it otherwise
func (c *Client) PutIntent(ctx context.Context, input *lexmodels.PutIntentInput, checksum string) (*lexmodels.PutIntentOutput, error) {
	input.Checksum = checksumParam(checksum)
	out, err := c.lex.PutIntent(ctx, input)
	if err != nil {
		return nil, c.putFailed(ctx, "intent", aws.ToString(input.Name), checksum, err)
	}
	c.putSucceeded(ctx, "intent", aws.ToString(out.Name), checksum, out.Checksum, out.Version)
	return out, nil
}

// CreateIntentVersion publishes the intent state identified by checksum
func (c *Client) CreateIntentVersion(ctx context.Context, name, checksum string) (*lexmodels.CreateIntentVersionOutput, error) {
	out, err := c.lex.CreateIntentVersion(ctx, &lexmodels.CreateIntentVersionInput{
		Name:     aws.String(name),
		Checksum: checksumParam(checksum),
	})
	if err != nil {
		return nil, c.versionFailed(ctx, "intent", name, err)
	}
	c.versionCreated(ctx, "intent", name, out.Version)
	return out, nil
}

// DeleteIntent deletes the intent under the retry policy. A missing intent is success.
func (c *Client) DeleteIntent(ctx context.Context, name string) error {
	return c.remove(ctx, "intent", name, nil, func(ctx context.Context) error {
		_, err := c.lex.DeleteIntent(ctx, &lexmodels.DeleteIntentInput{Name: aws.String(name)})
		return err
	})
}

// PutSlotType creates the slot type when checksum is empty and updates it otherwise
func (c *Client) PutSlotType(ctx context.Context, input *lexmodels.PutSlotTypeInput, checksum string) (*lexmodels.PutSlotTypeOutput, error) {
	input.Checksum = checksumParam(checksum)
	out, err := c.lex.PutSlotType(ctx, input)
	if err != nil {
		return nil, c.putFailed(ctx, "slot_type", aws.ToString(input.Name), checksum, err)
	}
	c.putSucceeded(ctx, "slot_type", aws.ToString(out.Name), checksum, out.Checksum, out.Version)
	return out, nil
}

// CreateSlotTypeVersion publishes the slot type state identified by checksum
func (c *Client) CreateSlotTypeVersion(ctx context.Context, name, checksum string) (*lexmodels.CreateSlotTypeVersionOutput, error) {
	out, err := c.lex.CreateSlotTypeVersion(ctx, &lexmodels.CreateSlotTypeVersionInput{
		Name:     aws.String(name),
		Checksum: checksumParam(checksum),
	})
	if err != nil {
		return nil, c.versionFailed(ctx, "slot_type", name, err)
	}
	c.versionCreated(ctx, "slot_type", name, out.Version)
	return out, nil
}

// DeleteSlotType deletes the slot type. A missing slot type is success; a slot
// type still referenced by an intent fails at once so the caller can decide.
func (c *Client) DeleteSlotType(ctx context.Context, name string) error {
	return c.remove(ctx, "slot_type", name, IsInUse, func(ctx context.Context) error {
		_, err := c.lex.DeleteSlotType(ctx, &lexmodels.DeleteSlotTypeInput{Name: aws.String(name)})
		return err
	})
}

// AddInvokePermission allows Lex to invoke functionArn. It returns false
// without error when a statement with the same id already exists.
func (c *Client) AddInvokePermission(ctx context.Context, functionArn, statementID, sourceArn string) (bool, error) {
	out, err := c.lambda.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName: aws.String(functionArn),
		StatementId:  aws.String(statementID),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String("lex.amazonaws.com"),
		SourceArn:    aws.String(sourceArn),
	})
	if err != nil {
		if IsConflict(err) {
			c.logger.InfoContext(ctx, "invoke permission already exists",
				slog.String("function_arn", functionArn),
				slog.String("statement_id", statementID),
			)
			return false, nil
		}
		c.logger.ErrorContext(ctx, "failed to add invoke permission",
			slog.String("function_arn", functionArn),
			slog.String("statement_id", statementID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("failed to add invoke permission to %s: %w", functionArn, err)
	}

	c.logger.InfoContext(ctx, "added invoke permission",
		slog.String("function_arn", functionArn),
		slog.String("statement_id", statementID),
		slog.String("statement", aws.ToString(out.Statement)),
	)
	return true, nil
}

func (c *Client) exists(ctx context.Context, kind, name string, get func(context.Context) (*string, error)) (bool, string, error) {
	checksum, err := get(ctx)
	if err != nil {
		if IsNotFound(err) {
			c.logger.DebugContext(ctx, "lex resource not found",
				slog.String("kind", kind),
				slog.String("name", name),
			)
			return false, "", nil
		}
		c.logger.ErrorContext(ctx, "lex lookup failed",
			slog.String("kind", kind),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return false, "", fmt.Errorf("failed to get %s %s: %w", kind, name, err)
	}

	c.logger.DebugContext(ctx, "lex resource found",
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("checksum", aws.ToString(checksum)),
	)
	return true, aws.ToString(checksum), nil
}

// remove runs del under the retry policy. permanent, when set, selects errors
// that end the loop immediately.
func (c *Client) remove(ctx context.Context, kind, name string, permanent func(error) bool, del func(context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := del(ctx)
		switch {
		case err == nil:
			c.logger.InfoContext(ctx, "deleted lex resource",
				slog.String("kind", kind),
				slog.String("name", name),
				slog.Int("attempt", attempt),
			)
			return nil
		case IsNotFound(err):
			c.logger.InfoContext(ctx, "lex resource already deleted",
				slog.String("kind", kind),
				slog.String("name", name),
			)
			return nil
		case permanent != nil && permanent(err), IsPreconditionFailed(err):
			return Permanent(err)
		default:
			return err
		}
	}

	notify := func(err error, next time.Duration) {
		c.logger.WarnContext(ctx, "lex delete attempt failed",
			slog.String("kind", kind),
			slog.String("name", name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.retry.MaxAttempts),
			slog.Duration("delay", next),
			slog.String("error", err.Error()),
		)
	}

	if err := c.retry.Do(ctx, op, notify); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete lex resource",
			slog.String("kind", kind),
			slog.String("name", name),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete %s %s after %d attempts: %w", kind, name, attempt, err)
	}
	return nil
}

func (c *Client) putSucceeded(ctx context.Context, kind, name, previous string, checksum, version *string) {
	action := "created"
	if previous != "" {
		action = "updated"
	}
	c.logger.InfoContext(ctx, action+" lex resource",
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("checksum", aws.ToString(checksum)),
		slog.String("version", aws.ToString(version)),
	)
}

func (c *Client) putFailed(ctx context.Context, kind, name, checksum string, err error) error {
	action := "create"
	if checksum != "" {
		action = "update"
	}
	c.logger.ErrorContext(ctx, "failed to "+action+" lex resource",
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("error_code", ErrorCode(err)),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("failed to %s %s %s: %w", action, kind, name, err)
}

func (c *Client) versionCreated(ctx context.Context, kind, name string, version *string) {
	c.logger.InfoContext(ctx, "created lex resource version",
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("version", aws.ToString(version)),
	)
}

func (c *Client) versionFailed(ctx context.Context, kind, name string, err error) error {
	c.logger.ErrorContext(ctx, "failed to create lex resource version",
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("failed to create %s version for %s: %w", kind, name, err)
}

func checksumParam(checksum string) *string {
	if checksum == "" {
		return nil
	}
	return aws.String(checksum)
}
