// taxictl runs the offline taxi trip batch: profiling, cleaning, loading
// and verification.
//
// Usage:
//
//	taxictl profile --raw data/train.csv
//	taxictl clean --raw data/train.csv --cleaned data/cleaned_data.csv
//	taxictl load --cleaned data/cleaned_data.csv
//	taxictl verify --cleaned data/cleaned_data.csv -o json
//	taxictl run
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanmobility/taxi-backend-go/internal/config"
	"github.com/urbanmobility/taxi-backend-go/internal/logging"
)

var version = "dev"

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	output     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "taxictl",
		Short: "Clean, load and verify NYC taxi trip data",
		Long: `taxictl runs the offline batch behind the taxi trip API.

It profiles a raw trip feed, cleans it into an enriched CSV plus a
cleaning log, bulk-loads the cleaned trips into the store and verifies
cleaned output against the cleaning rules.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "yaml", "Report format: yaml, json")

	rootCmd.AddCommand(profileCmd(opts))
	rootCmd.AddCommand(cleanCmd(opts))
	rootCmd.AddCommand(loadCmd(opts))
	rootCmd.AddCommand(verifyCmd(opts))
	rootCmd.AddCommand(runCmd(opts))

	return rootCmd
}

// setup loads configuration and builds the logger
func (o *globalOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
