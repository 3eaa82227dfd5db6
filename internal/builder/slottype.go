// Package builder reconciles bots, intents and slot types against Lex.
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice/types"

	"github.com/jrzesz33/lex_provisioner/internal/lex"
	"github.com/jrzesz33/lex_provisioner/internal/models"
)

// SlotTypeVersion summarizes a reconciled slot type
type SlotTypeVersion struct {
	Name     string
	Checksum string
	Version  string
}

// SlotTypeBuilder puts and deletes custom slot types
type SlotTypeBuilder struct {
	client *lex.Client
	logger *slog.Logger
}

// NewSlotTypeBuilder creates a new slot type builder
func NewSlotTypeBuilder(client *lex.Client, logger *slog.Logger) *SlotTypeBuilder {
	return &SlotTypeBuilder{
		client: client,
		logger: logger,
	}
}

// PutSlotTypeRequest builds the put request for a slot type
func PutSlotTypeRequest(slotType *models.SlotType) *lexmodels.PutSlotTypeInput {
	values := slotType.SortedValues()
	enumeration := make([]lextypes.EnumerationValue, 0, len(values))
	for _, value := range values {
		enumeration = append(enumeration, lextypes.EnumerationValue{
			Value:    aws.String(value),
			Synonyms: slotType.Values[value],
		})
	}

	return &lexmodels.PutSlotTypeInput{
		Name:                   aws.String(slotType.Name),
		Description:            aws.String(slotType.Name),
		EnumerationValues:      enumeration,
		ValueSelectionStrategy: lextypes.SlotValueSelectionStrategyOriginalValue,
	}
}

// PutSlotType creates or updates the slot type and publishes a version of it
func (b *SlotTypeBuilder) PutSlotType(ctx context.Context, slotType *models.SlotType) (*SlotTypeVersion, error) {
	exists, checksum, err := b.client.SlotTypeExists(ctx, slotType.Name)
	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "putting slot type",
		slog.String("slot_type", slotType.Name),
		slog.Bool("exists", exists),
		slog.Int("values", len(slotType.Values)),
	)

	out, err := b.client.PutSlotType(ctx, PutSlotTypeRequest(slotType), checksum)
	if err != nil {
		return nil, err
	}

	version, err := b.client.CreateSlotTypeVersion(ctx, slotType.Name, aws.ToString(out.Checksum))
	if err != nil {
		return nil, err
	}

	return &SlotTypeVersion{
		Name:     slotType.Name,
		Checksum: aws.ToString(version.Checksum),
		Version:  aws.ToString(version.Version),
	}, nil
}

// DeleteSlotType removes the slot type. It reports false without error when an
// intent still references it.
func (b *SlotTypeBuilder) DeleteSlotType(ctx context.Context, name string) (bool, error) {
	err := b.client.DeleteSlotType(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case lex.IsInUse(err):
		b.logger.WarnContext(ctx, "slot type still in use",
			slog.String("slot_type", name),
			slog.String("error", err.Error()),
		)
		return false, nil
	default:
		return false, fmt.Errorf("slot type %s: %w", name, err)
	}
}
