package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/cryptodash-backtest/internal/backtest"
	"github.com/yourusername/cryptodash-backtest/internal/batch"
	"github.com/yourusername/cryptodash-backtest/internal/models"
	"github.com/yourusername/cryptodash-backtest/internal/streamclient"
)

var serverURL string

func init() {
	streamCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "Base URL of the backtest API")
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run a batch on a remote server and print its events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runRemote(ctx, cmd)
	},
}

func runRemote(ctx context.Context, cmd *cobra.Command) error {
	req, err := buildRequest()
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	client := streamclient.New(streamclient.DefaultConfig(serverURL), log)

	out := cmd.OutOrStdout()
	var (
		results  []batch.ResultData
		failed   int
		complete bool
		aborted  *batch.ErrorData
	)
	err = client.Stream(ctx, req, func(ev streamclient.ClientEvent) error {
		fmt.Fprintf(out, "%s %s\n", ev.Kind, ev.Data)
		switch batch.EventKind(ev.Kind) {
		case batch.KindResult:
			var data batch.ResultData
			if err := ev.Decode(&data); err != nil {
				return err
			}
			results = append(results, data)
		case batch.KindError:
			var data batch.ErrorData
			if err := ev.Decode(&data); err != nil {
				return err
			}
			if data.Fatal {
				aborted = &data
				return nil
			}
			failed++
		case batch.KindComplete:
			complete = true
		}
		return nil
	})
	if err != nil {
		var apiErr *streamclient.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("server rejected the request: %w", apiErr)
		}
		return err
	}
	if aborted != nil {
		return fmt.Errorf("run aborted after %d results: %s", len(results), aborted.Reason)
	}
	if !complete {
		return fmt.Errorf("stream ended before completion after %d results", len(results))
	}

	collected := make([]models.BacktestResult, 0, len(results))
	for _, r := range results {
		collected = append(collected, r.Result)
	}
	fmt.Fprintln(out, backtest.GenerateBatchReport(backtest.AggregateResults(collected), failed))
	return nil
}
