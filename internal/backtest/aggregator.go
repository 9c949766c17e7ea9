package backtest

import (
	"sort"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// BatchSummary condenses the results of one batch run
type BatchSummary struct {
	StrategyID      models.StrategyID `json:"strategy_id"`
	Instruments     int               `json:"instruments"`
	Profitable      int               `json:"profitable"`
	MeanReturnPct   float64           `json:"mean_return_pct"`
	MedianReturnPct float64           `json:"median_return_pct"`
	MeanSharpe      float64           `json:"mean_sharpe"`
	WorstDrawdown   float64           `json:"worst_drawdown"`
	TotalTrades     int               `json:"total_trades"`
	OverallWinRate  float64           `json:"overall_win_rate"`
	Best            *RankedResult     `json:"best,omitempty"`
	Worst           *RankedResult     `json:"worst,omitempty"`
	Recommendation  string            `json:"recommendation"`
}

// RankedResult identifies one instrument's outcome in a summary
type RankedResult struct {
	InstrumentID   int64   `json:"instrument_id"`
	Symbol         string  `json:"symbol"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// AggregateResults summarizes a batch of results for one strategy
func AggregateResults(results []models.BacktestResult) BatchSummary {
	summary := BatchSummary{Instruments: len(results)}
	if len(results) == 0 {
		summary.Recommendation = GenerateRecommendation(summary)
		return summary
	}
	summary.StrategyID = results[0].StrategyID

	returns := make([]float64, 0, len(results))
	sharpes := make([]float64, 0, len(results))
	wins := 0
	for i := range results {
		r := &results[i]
		returns = append(returns, r.TotalReturnPct)
		sharpes = append(sharpes, r.SharpeRatio)
		if r.TotalReturnPct > 0 {
			summary.Profitable++
		}
		if r.MaxDrawdown < summary.WorstDrawdown {
			summary.WorstDrawdown = r.MaxDrawdown
		}
		summary.TotalTrades += r.TradeCount
		wins += r.WinningTrades

		ranked := &RankedResult{InstrumentID: r.InstrumentID, Symbol: r.Symbol, TotalReturnPct: r.TotalReturnPct}
		if summary.Best == nil || r.TotalReturnPct > summary.Best.TotalReturnPct {
			summary.Best = ranked
		}
		if summary.Worst == nil || r.TotalReturnPct < summary.Worst.TotalReturnPct {
			summary.Worst = ranked
		}
	}

	summary.MeanReturnPct = average(returns)
	summary.MedianReturnPct = median(returns)
	summary.MeanSharpe = average(sharpes)
	summary.OverallWinRate = calculateWinRate(wins, summary.TotalTrades)
	summary.Recommendation = GenerateRecommendation(summary)
	return summary
}

// GenerateRecommendation produces a coarse verdict for a batch
func GenerateRecommendation(summary BatchSummary) string {
	if summary.Instruments == 0 || summary.TotalTrades == 0 {
		return "INSUFFICIENT_EVIDENCE"
	}
	profitableShare := float64(summary.Profitable) / float64(summary.Instruments)
	switch {
	case profitableShare >= 0.6 && summary.MeanSharpe > 0.5:
		return "PROMISING"
	case profitableShare >= 0.4 && summary.MeanReturnPct > 0:
		return "MIXED"
	default:
		return "REJECT"
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
