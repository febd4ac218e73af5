package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemalens/schemalens/internal/adapter"
	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/logging"
	"github.com/schemalens/schemalens/internal/normalize"
)

var (
	extractType       string
	extractDSN        string
	extractSchemaFile string
	extractOutput     string
	extractFormat     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract and normalize a source schema",
	Long: `Connect to the configured source, extract its structural metadata, and
write the normalized schema document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOrFlagConfig()
		if err != nil {
			return err
		}

		log, err := logging.Setup(logLevel, cfg.Logging.Directory)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		a, err := adapter.New(&cfg.Source)
		if err != nil {
			return fmt.Errorf("initializing adapter: %w", err)
		}

		ctx := context.Background()
		defer a.Close(ctx)

		log.Info("extracting schema", "type", cfg.Source.Type)
		src, err := a.Extract(ctx)
		if err != nil {
			return fmt.Errorf("extracting schema: %w", err)
		}

		unified, err := normalize.Convert(src)
		if err != nil {
			return fmt.Errorf("normalizing schema: %w", err)
		}

		fmt.Println(unified.Summary())

		outputPath := extractOutput
		if outputPath == "" {
			outputPath = cfg.Output.Path
		}
		if outputPath == "" {
			outputPath = "schema." + cfg.Output.Format
		}

		switch format := outputFormat(cfg); format {
		case "json":
			err = unified.WriteJSON(outputPath)
		case "yaml":
			err = unified.WriteYAML(outputPath)
		default:
			return fmt.Errorf("unknown output format %q", format)
		}
		if err != nil {
			return fmt.Errorf("writing schema: %w", err)
		}

		fmt.Printf("Schema written to %s\n", outputPath)
		return nil
	},
}

// loadOrFlagConfig loads the config file when present; flags override it
// and suffice on their own for one-shot runs.
func loadOrFlagConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if extractType == "" {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = &config.Config{Version: config.CurrentVersion}
		cfg.Source.SampleSize = 100
		cfg.Output.Format = "yaml"
		cfg.Logging.Level = "info"
	}

	if extractType != "" {
		cfg.Source.Type = extractType
	}
	if extractDSN != "" {
		dsn, err := config.ResolveValue(extractDSN)
		if err != nil {
			return nil, fmt.Errorf("resolving dsn: %w", err)
		}
		cfg.Source.DSN = dsn
	}
	if extractSchemaFile != "" {
		cfg.Source.SchemaFile = extractSchemaFile
	}
	return cfg, nil
}

func outputFormat(cfg *config.Config) string {
	if extractFormat != "" {
		return extractFormat
	}
	return cfg.Output.Format
}

func init() {
	extractCmd.Flags().StringVarP(&extractType, "type", "t", "", "source type (postgres, mysql, sqlite, mongodb, firestore, prisma, drizzle)")
	extractCmd.Flags().StringVar(&extractDSN, "dsn", "", "connection string (overrides config)")
	extractCmd.Flags().StringVar(&extractSchemaFile, "schema-file", "", "ORM schema definition file path")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output path for the schema document")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "", "output format (yaml or json)")
	rootCmd.AddCommand(extractCmd)
}
