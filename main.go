package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/config"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/ddl"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "llm-metadata",
		Short:        "Generate BigQuery column descriptions for FHIR tables with an LLM",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "development logging")

	rootCmd.AddCommand(describeCmd(opts))
	rootCmd.AddCommand(renderCmd(opts))
	rootCmd.AddCommand(promptsCmd(opts))
	rootCmd.AddCommand(mcpCmd(opts))
	return rootCmd
}

// tableFlags override the files and bigquery sections of the configuration.
type tableFlags struct {
	input         string
	outputSchema  string
	sqlOutput     string
	table         string
	resourceLabel string
	mode          string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "schema file (overrides files.input_schema)")
	cmd.Flags().StringVarP(&f.sqlOutput, "sql-output", "o", "", "SQL output file (overrides files.sql_output)")
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "fully qualified table (overrides bigquery.*_id)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "create or alter (overrides bigquery.mode)")
}

// job builds the file job from the configuration and the flags.
func (f *tableFlags) job(cfg *config.Config) (services.FileJob, error) {
	job := services.FileJob{
		InputSchema:   firstNonEmpty(f.input, cfg.Files.InputSchema),
		OutputSchema:  firstNonEmpty(f.outputSchema, cfg.Files.OutputSchema),
		SQLOutput:     firstNonEmpty(f.sqlOutput, cfg.Files.SQLOutput),
		TableName:     firstNonEmpty(f.table, cfg.FullTableName()),
		ResourceLabel: f.resourceLabel,
	}

	mode, err := ddl.ParseMode(firstNonEmpty(f.mode, cfg.BigQuery.Mode))
	if err != nil {
		return job, err
	}
	job.Mode = mode

	if job.InputSchema == "" {
		return job, fmt.Errorf("no input schema: set files.input_schema or pass --input")
	}
	if job.TableName == "" {
		return job, fmt.Errorf("no table: set bigquery.project_id, dataset_id and table_id or pass --table")
	}
	return job, nil
}

func describeCmd(opts *rootOptions) *cobra.Command {
	var (
		flags    tableFlags
		skip     bool
		jsonOut  bool
		fallback bool
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Describe a table schema with the configured LLM and render the DDL",
		Long: "Generates a table description and a description for every field of the input schema, " +
			"writes the described schema and the DDL that applies it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("fallback-to-original") {
				a.cfg.Enrichment.FallbackToOriginal = fallback
			}
			job, err := flags.job(a.cfg)
			if err != nil {
				return err
			}
			return runDescribe(cmd.Context(), cmd.OutOrStdout(), a, job, skip, jsonOut)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.outputSchema, "output-schema", "", "described schema output file (overrides files.output_schema)")
	cmd.Flags().StringVar(&flags.resourceLabel, "resource-label", "", "resource stored in the table (default: derived from the table name)")
	cmd.Flags().BoolVar(&skip, "skip-table-description", false, "do not generate a table description")
	cmd.Flags().BoolVar(&fallback, "fallback-to-original", false, "keep original descriptions for fields of failed chunks")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

func runDescribe(ctx context.Context, out io.Writer, a *app, job services.FileJob, skipTableDescription, jsonOut bool) error {
	if err := a.openPromptStore(ctx); err != nil {
		return err
	}
	svc, err := a.newSchemaService()
	if err != nil {
		return err
	}

	job.SkipTableDescription = skipTableDescription
	result, err := services.DescribeFile(ctx, svc, job)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		a.logger.Warn("Describe warning", zap.String("warning", w))
	}
	if len(result.Missing) > 0 {
		a.logger.Warn("Fields left out of the described schema",
			zap.Strings("fields", result.Missing))
	}

	if jsonOut {
		return printJSON(out, result)
	}
	if job.SQLOutput == "" {
		fmt.Fprintln(out, result.SQL)
	}
	a.logger.Info("Describe complete",
		zap.String("table", result.TableName),
		zap.String("schema_output", job.OutputSchema),
		zap.String("sql_output", job.SQLOutput),
		zap.Int64("duration_ms", result.DurationMs))
	return nil
}

func renderCmd(opts *rootOptions) *cobra.Command {
	var (
		flags            tableFlags
		tableDescription string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render DDL from a schema that already carries descriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := flags.job(a.cfg)
			if err != nil {
				return err
			}
			fields, err := models.LoadSchema(job.InputSchema)
			if err != nil {
				return err
			}

			// Render never calls the model.
			svc := services.NewSchemaDescriptionService(nil, a.cfg.Enrichment.MaxDescriptionLength, a.logger)
			result, err := svc.Render(&services.RenderRequest{
				TableName:        job.TableName,
				Fields:           fields,
				TableDescription: tableDescription,
				Mode:             job.Mode,
			})
			if err != nil {
				return err
			}
			if job.SQLOutput == "" {
				fmt.Fprintln(cmd.OutOrStdout(), result.SQL)
				return nil
			}
			return services.WriteSQLFile(job.SQLOutput, result.SQL)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&tableDescription, "table-description", "", "description for the table OPTIONS")
	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
