package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/jrzesz33/lex_provisioner/internal/models"
)

// SNSAPI is the subset of the SNS client used to publish outcomes
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var _ SNSAPI = (*sns.Client)(nil)

// OutcomePublisher defines the interface for announcing provisioning outcomes
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, record *models.ProvisioningRecord) error
}

// SNSPublisher implements OutcomePublisher using AWS SNS
type SNSPublisher struct {
	client   SNSAPI
	topicArn string
	logger   *slog.Logger
}

// NewSNSPublisher creates a new SNS publisher instance
func NewSNSPublisher(client SNSAPI, topicArn string, logger *slog.Logger) *SNSPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &SNSPublisher{
		client:   client,
		topicArn: topicArn,
		logger:   logger,
	}
}

// PublishOutcome publishes the record as JSON to the SNS topic
func (s *SNSPublisher) PublishOutcome(ctx context.Context, record *models.ProvisioningRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal provisioning record to JSON: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicArn),
		Subject:  aws.String(fmt.Sprintf("%s %s %s", record.BotName, record.RequestType, record.Status)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"stage": {
				DataType:    aws.String("String"),
				StringValue: aws.String(record.Stage.String()),
			},
			"request_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(record.RequestType),
			},
			"status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(record.Status.String()),
			},
		},
	}

	result, err := s.client.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish outcome to SNS: %w", err)
	}

	s.logger.InfoContext(ctx, "outcome published to SNS",
		slog.String("record_id", record.ID),
		slog.String("sns_message_id", aws.ToString(result.MessageId)),
		slog.String("topic_arn", s.topicArn),
	)

	return nil
}
