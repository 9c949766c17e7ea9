// Package main provides the command line tool for running batch backtests.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

var (
	configFile string
	strategyID string
	interval   string
	startDate  string
	endDate    string
	params     map[string]string
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run strategy backtests across the instrument universe",
	Long: `Run a strategy over every eligible instrument, either locally against
the price database or remotely through a running API server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	for _, cmd := range []*cobra.Command{runCmd, streamCmd} {
		cmd.Flags().StringVarP(&strategyID, "strategy", "s", "rsi", "Strategy identifier")
		cmd.Flags().StringVarP(&interval, "interval", "i", "", "Candle interval (defaults to the configured interval)")
		cmd.Flags().StringVar(&startDate, "start-date", "", "Start of range (YYYY-MM-DD)")
		cmd.Flags().StringVar(&endDate, "end-date", "", "End of range (YYYY-MM-DD)")
		cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Strategy parameter override, e.g. -p period=21")
	}
}

func main() {
	rootCmd.AddCommand(runCmd, streamCmd, strategiesCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, err
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, errors.New("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseParameters(raw map[string]string) (models.Parameters, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(models.Parameters, len(raw))
	for name, value := range raw {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &parsed, nil
}
