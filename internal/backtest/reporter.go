package backtest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// ResultRow is the flat CSV form of a backtest result
type ResultRow struct {
	InstrumentID   int64   `csv:"instrument_id"`
	Symbol         string  `csv:"symbol"`
	StrategyID     string  `csv:"strategy_id"`
	Parameters     string  `csv:"parameters"`
	Interval       string  `csv:"interval"`
	StartDate      string  `csv:"start_date"`
	EndDate        string  `csv:"end_date"`
	InitialCapital string  `csv:"initial_capital"`
	FinalCapital   string  `csv:"final_capital"`
	TotalReturnPct string  `csv:"total_return_pct"`
	TradeCount     int     `csv:"trade_count"`
	WinningTrades  int     `csv:"winning_trades"`
	LosingTrades   int     `csv:"losing_trades"`
	WinRate        float64 `csv:"win_rate"`
	MaxDrawdown    float64 `csv:"max_drawdown"`
	SharpeRatio    float64 `csv:"sharpe_ratio"`
	DataPoints     int     `csv:"data_points"`
	ComputationMS  int64   `csv:"computation_ms"`
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// NewResultRow flattens a result, rounding money to cents
func NewResultRow(r models.BacktestResult) ResultRow {
	return ResultRow{
		InstrumentID:   r.InstrumentID,
		Symbol:         r.Symbol,
		StrategyID:     string(r.StrategyID),
		Parameters:     string(r.Parameters.JSON()),
		Interval:       r.Interval,
		StartDate:      r.StartDate.UTC().Format(time.RFC3339),
		EndDate:        r.EndDate.UTC().Format(time.RFC3339),
		InitialCapital: money(r.InitialCapital).StringFixed(2),
		FinalCapital:   money(r.FinalCapital).StringFixed(2),
		TotalReturnPct: decimal.NewFromFloat(r.TotalReturnPct).StringFixed(4),
		TradeCount:     r.TradeCount,
		WinningTrades:  r.WinningTrades,
		LosingTrades:   r.LosingTrades,
		WinRate:        r.WinRate,
		MaxDrawdown:    r.MaxDrawdown,
		SharpeRatio:    r.SharpeRatio,
		DataPoints:     r.DataPoints,
		ComputationMS:  r.ComputationTime.Milliseconds(),
	}
}

// WriteResultsCSV exports results for spreadsheets
func WriteResultsCSV(w io.Writer, results []models.BacktestResult) error {
	rows := make([]*ResultRow, 0, len(results))
	for _, r := range results {
		row := NewResultRow(r)
		rows = append(rows, &row)
	}
	return gocsv.Marshal(rows, w)
}

// GenerateConsoleReport formats a single simulation for terminal output
func GenerateConsoleReport(sim *Simulation) string {
	r := sim.Result
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Instrument: %s (%d)\n", displaySymbol(r), r.InstrumentID))
	builder.WriteString(fmt.Sprintf("Strategy: %s %s\n", r.StrategyID, r.Parameters.JSON()))
	builder.WriteString(fmt.Sprintf("Range: %s to %s (%d bars, %s)\n",
		r.StartDate.UTC().Format(time.RFC3339), r.EndDate.UTC().Format(time.RFC3339), r.DataPoints, r.Interval))
	builder.WriteString(fmt.Sprintf("Initial Capital: %s\n", money(r.InitialCapital).StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Final Capital: %s\n", money(r.FinalCapital).StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", r.TotalReturnPct))
	builder.WriteString(fmt.Sprintf("Trades: %d (%d won, %d lost)\n", r.TradeCount, r.WinningTrades, r.LosingTrades))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", r.WinRate*100))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", r.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", r.SharpeRatio))

	if len(sim.Trades) > 0 {
		builder.WriteString("\nTrades\n------\n")
		for _, t := range sim.Trades {
			suffix := ""
			if t.Forced {
				suffix = " (closed at end)"
			}
			builder.WriteString(fmt.Sprintf("%s -> %s  %s -> %s  pnl %s%s\n",
				t.EntryTime.UTC().Format(time.RFC3339), t.ExitTime.UTC().Format(time.RFC3339),
				decimal.NewFromFloat(t.EntryPrice).String(), decimal.NewFromFloat(t.ExitPrice).String(),
				money(t.PnL).StringFixed(2), suffix))
		}
	}
	return builder.String()
}

// GenerateBatchReport formats a batch summary for terminal output
func GenerateBatchReport(summary BatchSummary, failed int) string {
	var builder strings.Builder
	builder.WriteString("Batch Report\n")
	builder.WriteString("============\n")
	builder.WriteString(fmt.Sprintf("Strategy: %s\n", summary.StrategyID))
	builder.WriteString(fmt.Sprintf("Instruments: %d evaluated, %d failed\n", summary.Instruments, failed))
	builder.WriteString(fmt.Sprintf("Profitable: %d\n", summary.Profitable))
	builder.WriteString(fmt.Sprintf("Mean Return: %.2f%%\n", summary.MeanReturnPct))
	builder.WriteString(fmt.Sprintf("Median Return: %.2f%%\n", summary.MedianReturnPct))
	builder.WriteString(fmt.Sprintf("Mean Sharpe: %.2f\n", summary.MeanSharpe))
	builder.WriteString(fmt.Sprintf("Worst Drawdown: %.2f%%\n", summary.WorstDrawdown*100))
	builder.WriteString(fmt.Sprintf("Trades: %d (win rate %.2f%%)\n", summary.TotalTrades, summary.OverallWinRate*100))
	if summary.Best != nil {
		builder.WriteString(fmt.Sprintf("Best: %s %.2f%%\n", summary.Best.Symbol, summary.Best.TotalReturnPct))
	}
	if summary.Worst != nil {
		builder.WriteString(fmt.Sprintf("Worst: %s %.2f%%\n", summary.Worst.Symbol, summary.Worst.TotalReturnPct))
	}
	builder.WriteString(fmt.Sprintf("Recommendation: %s\n", summary.Recommendation))
	return builder.String()
}

func displaySymbol(r models.BacktestResult) string {
	if r.Symbol == "" {
		return "-"
	}
	return r.Symbol
}
