package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "schemalens",
	Short: "schemalens — database schema extraction for AI coding assistants",
	Long: `schemalens extracts structural metadata from relational databases
(PostgreSQL, MySQL, SQLite), document stores (MongoDB, Firestore), and ORM
schema files (Prisma, Drizzle), normalizes it into one unified schema model,
and writes it as a YAML or JSON context document.`,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.schemalens/schemalens.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
