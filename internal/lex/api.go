// Package lex wraps the Lex model building and Lambda permission APIs behind
// checksum aware lookup, put and bounded retry delete helpers.
package lex

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
)

// LatestVersion addresses the mutable draft of a Lex resource
const LatestVersion = "$LATEST"

// LexAPI is the subset of the Lex model building client used by the provisioner
type LexAPI interface {
	GetBot(ctx context.Context, params *lexmodels.GetBotInput, optFns ...func(*lexmodels.Options)) (*lexmodels.GetBotOutput, error)
	PutBot(ctx context.Context, params *lexmodels.PutBotInput, optFns ...func(*lexmodels.Options)) (*lexmodels.PutBotOutput, error)
	CreateBotVersion(ctx context.Context, params *lexmodels.CreateBotVersionInput, optFns ...func(*lexmodels.Options)) (*lexmodels.CreateBotVersionOutput, error)
	DeleteBot(ctx context.Context, params *lexmodels.DeleteBotInput, optFns ...func(*lexmodels.Options)) (*lexmodels.DeleteBotOutput, error)

	GetIntent(ctx context.Context, params *lexmodels.GetIntentInput, optFns ...func(*lexmodels.Options)) (*lexmodels.GetIntentOutput, error)
	PutIntent(ctx context.Context, params *lexmodels.PutIntentInput, optFns ...func(*lexmodels.Options)) (*lexmodels.PutIntentOutput, error)
	CreateIntentVersion(ctx context.Context, params *lexmodels.CreateIntentVersionInput, optFns ...func(*lexmodels.Options)) (*lexmodels.CreateIntentVersionOutput, error)
	DeleteIntent(ctx context.Context, params *lexmodels.DeleteIntentInput, optFns ...func(*lexmodels.Options)) (*lexmodels.DeleteIntentOutput, error)

	GetSlotType(ctx context.Context, params *lexmodels.GetSlotTypeInput, optFns ...func(*lexmodels.Options)) (*lexmodels.GetSlotTypeOutput, error)
	PutSlotType(ctx context.Context, params *lexmodels.PutSlotTypeInput, optFns ...func(*lexmodels.Options)) (*lexmodels.PutSlotTypeOutput, error)
	CreateSlotTypeVersion(ctx context.Context, params *lexmodels.CreateSlotTypeVersionInput, optFns ...func(*lexmodels.Options)) (*lexmodels.CreateSlotTypeVersionOutput, error)
	DeleteSlotType(ctx context.Context, params *lexmodels.DeleteSlotTypeInput, optFns ...func(*lexmodels.Options)) (*lexmodels.DeleteSlotTypeOutput, error)
}

// LambdaAPI is the subset of the Lambda client used to grant invoke permissions
type LambdaAPI interface {
	AddPermission(ctx context.Context, params *lambda.AddPermissionInput, optFns ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
}

var (
	_ LexAPI    = (*lexmodels.Client)(nil)
	_ LambdaAPI = (*lambda.Client)(nil)
)
