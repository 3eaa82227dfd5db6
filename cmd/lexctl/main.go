package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jrzesz33/lex_provisioner/internal/builder"
	"github.com/jrzesz33/lex_provisioner/internal/lex"
	"github.com/jrzesz33/lex_provisioner/internal/logging"
	"github.com/jrzesz33/lex_provisioner/internal/models"
	"github.com/jrzesz33/lex_provisioner/internal/repository"
	"github.com/jrzesz33/lex_provisioner/pkg/definition"
)

var rootCmd = &cobra.Command{
	Use:   "lexctl",
	Short: "Provision Lex bots from definition files",
	Long: `lexctl applies the same bot definitions the Custom::LexBot resource accepts,
outside of CloudFormation. Slot types are put before the bot and deleted after it.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LEXCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("file", "f", "bot.yaml", "bot definition file (YAML or JSON)")
	rootCmd.PersistentFlags().String("prefix", "", "name prefix (overrides NamePrefix in the file)")
	rootCmd.PersistentFlags().String("region", "", "AWS region (defaults to the SDK configuration)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
	_ = viper.BindPFlag("prefix", rootCmd.PersistentFlags().Lookup("prefix"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(historyCmd())
}

type builders struct {
	client    *lex.Client
	slotTypes *builder.SlotTypeBuilder
	bots      *builder.BotBuilder
}

func newLogger() *slog.Logger {
	level, ok := logging.ParseLevel(viper.GetString("log-level"))
	if !ok {
		level = slog.LevelWarn
	}
	return logging.NewLogger(os.Stderr, level)
}

func loadDefinition() (*definition.Definition, error) {
	return definition.LoadFile(viper.GetString("file"), viper.GetString("prefix"))
}

func awsConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region := viper.GetString("region"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func withBuilders(ctx context.Context, fn func(ctx context.Context, b builders) error) error {
	awsCfg, err := awsConfig(ctx)
	if err != nil {
		return err
	}

	logger := newLogger()
	client := lex.NewClient(
		lexmodels.NewFromConfig(awsCfg),
		awslambda.NewFromConfig(awsCfg),
		lex.DefaultRetryPolicy(),
		logger,
	)
	intents := builder.NewIntentBuilder(client, logger)
	return fn(ctx, builders{
		client:    client,
		slotTypes: builder.NewSlotTypeBuilder(client, logger),
		bots:      builder.NewBotBuilder(client, intents, logger),
	})
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create or update the slot types and bot of a definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition()
			if err != nil {
				return err
			}
			return withBuilders(cmd.Context(), func(ctx context.Context, b builders) error {
				rows := make([]statusRow, 0, len(def.SlotTypes)+1)
				for _, slotType := range def.SlotTypes {
					v, err := b.slotTypes.PutSlotType(ctx, slotType)
					if err != nil {
						return err
					}
					rows = append(rows, statusRow{Kind: "slot_type", Name: v.Name, Exists: true, Checksum: v.Checksum, Version: v.Version})
				}
				v, err := b.bots.Put(ctx, def.Bot)
				if err != nil {
					return err
				}
				rows = append(rows, statusRow{Kind: "bot", Name: v.Name, Exists: true, Version: v.Version})
				return printRows(rows)
			})
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the bot, its intents and then its slot types",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition()
			if err != nil {
				return err
			}
			return withBuilders(cmd.Context(), func(ctx context.Context, b builders) error {
				var errs []error
				if err := b.bots.Delete(ctx, def.Bot.Name, def.Bot.IntentNames()); err != nil {
					errs = append(errs, err)
				}
				for _, slotType := range def.SlotTypes {
					deleted, err := b.slotTypes.DeleteSlotType(ctx, slotType.Name)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					if !deleted {
						fmt.Fprintf(os.Stderr, "slot type %s is still in use, left in place\n", slotType.Name)
					}
				}
				if err := errors.Join(errs...); err != nil {
					return err
				}
				fmt.Printf("deleted %s\n", def.Bot.Name)
				return nil
			})
		},
	}
}

type statusRow struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Exists   bool   `json:"exists"`
	Checksum string `json:"checksum,omitempty"`
	Version  string `json:"version,omitempty"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which resources of a definition exist in Lex",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition()
			if err != nil {
				return err
			}
			return withBuilders(cmd.Context(), func(ctx context.Context, b builders) error {
				var rows []statusRow
				lookup := func(kind, name string, exists func(context.Context, string) (bool, string, error)) error {
					found, checksum, err := exists(ctx, name)
					if err != nil {
						return err
					}
					rows = append(rows, statusRow{Kind: kind, Name: name, Exists: found, Checksum: checksum})
					return nil
				}

				for _, slotType := range def.SlotTypes {
					if err := lookup("slot_type", slotType.Name, b.client.SlotTypeExists); err != nil {
						return err
					}
				}
				for _, name := range def.Bot.IntentNames() {
					if err := lookup("intent", name, b.client.IntentExists); err != nil {
						return err
					}
				}
				if err := lookup("bot", def.Bot.Name, b.client.BotExists); err != nil {
					return err
				}
				return printRows(rows)
			})
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a definition without calling AWS",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(def.Properties)
			}
			fmt.Printf("%s is valid: bot %s, %d intents, %d slot types\n",
				viper.GetString("file"), def.Bot.Name, len(def.Bot.Intents), len(def.SlotTypes))
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var tableName, stackID, id string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List provisioning records from the ledger table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tableName == "" {
				tableName = viper.GetString("table")
			}
			if tableName == "" {
				return fmt.Errorf("--table or LEXCTL_TABLE required")
			}

			awsCfg, err := awsConfig(cmd.Context())
			if err != nil {
				return err
			}
			repo := repository.NewDynamoDBRepository(dynamodb.NewFromConfig(awsCfg), tableName)

			var records []*models.ProvisioningRecord
			if id != "" {
				record, err := repo.GetRecord(cmd.Context(), id)
				if err != nil {
					return err
				}
				records = append(records, record)
			} else {
				records, err = repo.ListRecords(cmd.Context(), stackID, limit)
				if err != nil {
					return err
				}
			}

			if viper.GetBool("json") {
				return printJSON(records)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Created", "Request", "Bot", "Version", "Status", "Reason"})
			for _, r := range records {
				tw.AppendRow(table.Row{r.CreatedDate.Format("2006-01-02 15:04:05"), r.RequestType, r.BotName, r.BotVersion, r.Status, r.Reason})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&tableName, "table", "", "ledger table name")
	cmd.Flags().StringVar(&stackID, "stack-id", "", "only records of this stack")
	cmd.Flags().StringVar(&id, "id", "", "show a single record")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records")
	return cmd
}

func printRows(rows []statusRow) error {
	if viper.GetBool("json") {
		return printJSON(rows)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Kind", "Name", "Exists", "Checksum", "Version"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.Kind, r.Name, r.Exists, r.Checksum, r.Version})
	}
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
