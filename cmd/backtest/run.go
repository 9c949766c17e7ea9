package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
	"github.com/yourusername/cryptodash-backtest/internal/backtest"
	"github.com/yourusername/cryptodash-backtest/internal/batch"
	"github.com/yourusername/cryptodash-backtest/internal/cache"
	"github.com/yourusername/cryptodash-backtest/internal/database"
	applogger "github.com/yourusername/cryptodash-backtest/internal/logger"
	"github.com/yourusername/cryptodash-backtest/internal/marketdata"
	"github.com/yourusername/cryptodash-backtest/internal/repository"
	"github.com/yourusername/cryptodash-backtest/internal/strategy"
)

var (
	csvOutput  string
	jsonEvents bool
)

func init() {
	runCmd.Flags().StringVar(&csvOutput, "csv", "", "Write per-instrument results to this CSV file")
	runCmd.Flags().BoolVar(&jsonEvents, "json", false, "Print every stream event as a JSON line instead of a progress bar")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch locally against the price database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runLocal(ctx, cmd)
	},
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available strategies and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(strategy.NewRegistry().Definitions())
	},
}

func buildRequest() (apimodels.BacktestRequest, error) {
	parameters, err := parseParameters(params)
	if err != nil {
		return apimodels.BacktestRequest{}, err
	}
	start, err := parseDate(startDate)
	if err != nil {
		return apimodels.BacktestRequest{}, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return apimodels.BacktestRequest{}, err
	}
	return apimodels.BacktestRequest{
		StrategyID: strategyID,
		Parameters: parameters,
		Interval:   interval,
		StartDate:  start,
		EndDate:    end,
	}, nil
}

// eventLines prints events as JSON lines and stops the run on the first
// write error.
type eventLines struct {
	enc      *json.Encoder
	stop     context.CancelFunc
	writeErr error
}

func newEventLines(w io.Writer, stop context.CancelFunc) *eventLines {
	return &eventLines{enc: json.NewEncoder(w), stop: stop}
}

func (l *eventLines) write(ev batch.Event) {
	if l.writeErr != nil {
		return
	}
	if err := l.enc.Encode(ev); err != nil {
		l.writeErr = err
		l.stop()
	}
}

func (l *eventLines) err() error { return l.writeErr }

func runLocal(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	appLog := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	// keep the terminal for the progress bar
	appLog.SetOutput(cmd.ErrOrStderr())
	if !jsonEvents {
		appLog.SetLevel(logrus.WarnLevel)
	}

	req, err := buildRequest()
	if err != nil {
		return err
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}
	resultCache, err := cache.New(&cfg.Cache, appLog)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	evalCfg, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return err
	}
	evaluator, err := backtest.NewEvaluator(evalCfg, strategy.NewRegistry())
	if err != nil {
		return err
	}
	accessor := marketdata.NewAccessor(repos.Instrument, repos.Price, cfg.Backtest.SupportedIntervals)

	var opts []batch.Option
	if cfg.Backtest.PersistResults {
		opts = append(opts, batch.WithRecorder(repos.BacktestResult))
	}
	orchestrator, err := batch.NewOrchestrator(
		batch.ConfigFrom(&cfg.Backtest, &cfg.Cache), accessor, evaluator, resultCache, appLog, opts...)
	if err != nil {
		return err
	}

	// a failed write to stdout ends the run like a dropped client would
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	stream, err := orchestrator.Start(ctx, req.ToBatch())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lines := newEventLines(out, stop)
	var bar *progressbar.ProgressBar
	outcome := batch.Drain(stream, func(ev batch.Event) {
		if jsonEvents {
			lines.write(ev)
			return
		}
		switch data := ev.Data.(type) {
		case batch.StartData:
			bar = progressbar.NewOptions(data.Total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription(string(data.StrategyID)+" "+data.Interval),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		case batch.ProgressData:
			if bar != nil {
				_ = bar.Set(data.Completed)
			}
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}

	if err := lines.err(); err != nil {
		return fmt.Errorf("failed to write events for run %s: %w", outcome.RunID, err)
	}
	if outcome.Aborted != nil {
		return fmt.Errorf("run %s aborted after %d results: %s", outcome.RunID, len(outcome.Results), outcome.Aborted.Reason)
	}
	if outcome.Complete == nil {
		return fmt.Errorf("run %s cancelled after %d results", outcome.RunID, len(outcome.Results))
	}

	if !jsonEvents {
		summary := backtest.AggregateResults(outcome.Results)
		fmt.Fprintln(out, backtest.GenerateBatchReport(summary, len(outcome.Errors)))
		for _, e := range outcome.Errors {
			fmt.Fprintf(out, "  %-12s %-20s %s\n", e.Symbol, e.Code, e.Reason)
		}
	}

	if csvOutput != "" {
		f, err := os.Create(csvOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", csvOutput, err)
		}
		defer f.Close()
		if err := backtest.WriteResultsCSV(f, outcome.Results); err != nil {
			return err
		}
	}
	return nil
}
