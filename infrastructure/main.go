package main

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/dynamodb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/sns"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC RECOVERED: %v", r)
				log.Printf("Stack trace:\n%s", debug.Stack())
				err = fmt.Errorf("panic occurred: %v", r)
			}
		}()

		cfg := config.New(ctx, "")

		stage := cfg.Get("stage")
		if stage == "" {
			stage = "dev"
			log.Printf("Using default stage: %s", stage)
		}

		logRetentionDays := cfg.GetInt("logRetentionDays")
		if logRetentionDays == 0 {
			logRetentionDays = 7
		}

		deleteMaxAttempts := cfg.Get("deleteMaxAttempts")
		if deleteMaxAttempts == "" {
			deleteMaxAttempts = "5"
		}

		enableLedger := true
		if v, cfgErr := cfg.TryBool("enableLedger"); cfgErr == nil {
			enableLedger = v
		}

		log.Printf("Configuration loaded: stage=%s, logRetentionDays=%d, enableLedger=%v", stage, logRetentionDays, enableLedger)

		commonTags := pulumi.StringMap{
			"Project":     pulumi.String("lex-provisioner"),
			"Stage":       pulumi.String(stage),
			"ManagedBy":   pulumi.String("pulumi"),
			"Environment": pulumi.String(stage),
		}

		name := func(part string) string {
			return fmt.Sprintf("lex-provisioner-%s-%s", part, stage)
		}

		// ========================================
		// Provisioning ledger
		// ========================================
		var ledgerTable *dynamodb.Table
		if enableLedger {
			ledgerTable, err = dynamodb.NewTable(ctx, name("records"), &dynamodb.TableArgs{
				Name:        pulumi.String(name("records")),
				BillingMode: pulumi.String("PAY_PER_REQUEST"),
				HashKey:     pulumi.String("id"),
				Attributes: dynamodb.TableAttributeArray{
					&dynamodb.TableAttributeArgs{
						Name: pulumi.String("id"),
						Type: pulumi.String("S"),
					},
				},
				Tags: commonTags,
			})
			if err != nil {
				return err
			}
		}

		// ========================================
		// Outcome topic
		// ========================================
		outcomesTopic, err := sns.NewTopic(ctx, name("outcomes"), &sns.TopicArgs{
			Name: pulumi.String(name("outcomes")),
			Tags: commonTags,
		})
		if err != nil {
			return err
		}

		// ========================================
		// IAM
		// ========================================
		role, err := iam.NewRole(ctx, name("role"), &iam.RoleArgs{
			Name: pulumi.String(name("role")),
			AssumeRolePolicy: pulumi.String(`{
				"Version": "2012-10-17",
				"Statement": [{
					"Effect": "Allow",
					"Principal": {"Service": "lambda.amazonaws.com"},
					"Action": "sts:AssumeRole"
				}]
			}`),
			Tags: commonTags,
		})
		if err != nil {
			return err
		}

		_, err = iam.NewRolePolicyAttachment(ctx, name("basic-execution"), &iam.RolePolicyAttachmentArgs{
			Role:      role.Name,
			PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
		})
		if err != nil {
			return err
		}

		tableArn := pulumi.String("arn:aws:dynamodb:*:*:table/none").ToStringOutput()
		if ledgerTable != nil {
			tableArn = ledgerTable.Arn
		}

		_, err = iam.NewRolePolicy(ctx, name("policy"), &iam.RolePolicyArgs{
			Role: role.Name,
			Policy: pulumi.All(tableArn, outcomesTopic.Arn).ApplyT(func(args []interface{}) string {
				table := args[0].(string)
				topic := args[1].(string)
				return fmt.Sprintf(`{
					"Version": "2012-10-17",
					"Statement": [
						{
							"Effect": "Allow",
							"Action": [
								"lex:GetBot",
								"lex:PutBot",
								"lex:CreateBotVersion",
								"lex:DeleteBot",
								"lex:GetIntent",
								"lex:PutIntent",
								"lex:CreateIntentVersion",
								"lex:DeleteIntent",
								"lex:GetSlotType",
								"lex:PutSlotType",
								"lex:CreateSlotTypeVersion",
								"lex:DeleteSlotType"
							],
							"Resource": "*"
						},
						{
							"Effect": "Allow",
							"Action": ["lambda:AddPermission"],
							"Resource": "*"
						},
						{
							"Effect": "Allow",
							"Action": [
								"dynamodb:PutItem",
								"dynamodb:GetItem",
								"dynamodb:Scan"
							],
							"Resource": "%s"
						},
						{
							"Effect": "Allow",
							"Action": ["sns:Publish"],
							"Resource": "%s"
						}
					]
				}`, table, topic)
			}).(pulumi.StringOutput),
		})
		if err != nil {
			return err
		}

		// ========================================
		// Provisioner Lambda
		// ========================================
		logGroup, err := cloudwatch.NewLogGroup(ctx, name("logs"), &cloudwatch.LogGroupArgs{
			Name:            pulumi.String(fmt.Sprintf("/aws/lambda/%s", name("fn"))),
			RetentionInDays: pulumi.Int(logRetentionDays),
			Tags:            commonTags,
		})
		if err != nil {
			return err
		}

		env := pulumi.StringMap{
			"STAGE":                  pulumi.String(stage),
			"PROVISIONING_TOPIC_ARN": outcomesTopic.Arn,
			"DELETE_MAX_ATTEMPTS":    pulumi.String(deleteMaxAttempts),
		}
		if ledgerTable != nil {
			env["PROVISIONING_TABLE_NAME"] = ledgerTable.Name
		}

		provisioner, err := lambda.NewFunction(ctx, name("fn"), &lambda.FunctionArgs{
			Name:    pulumi.String(name("fn")),
			Runtime: pulumi.String("provided.al2023"),
			Role:    role.Arn,
			Handler: pulumi.String("bootstrap"),
			Code:    pulumi.NewFileArchive("../build/provisioner.zip"),
			Environment: &lambda.FunctionEnvironmentArgs{
				Variables: env,
			},
			MemorySize: pulumi.Int(256),
			// deletes retry for up to DELETE_MAX_ATTEMPTS x DELETE_RETRY_DELAY per resource
			Timeout: pulumi.Int(300),
			Tags:    commonTags,
		}, pulumi.DependsOn([]pulumi.Resource{logGroup}))
		if err != nil {
			return err
		}

		ctx.Export("provisionerFunctionArn", provisioner.Arn)
		ctx.Export("provisionerFunctionName", provisioner.Name)
		ctx.Export("outcomesTopicArn", outcomesTopic.Arn)
		if ledgerTable != nil {
			ctx.Export("provisioningTableName", ledgerTable.Name)
		}

		return nil
	})
}
