package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/straddle/internal/logger"
)

var (
	analyzeTicker    string
	analyzeLookback  int
	analyzeLookahead int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a one-shot earnings straddle analysis",
	Long: `Analyze the past year of earnings events for a ticker and print the
pre/post earnings straddle moves. Results are cached and archived the same
way the server does it.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeTicker, "ticker", "t", "", "Stock ticker to analyze (required)")
	analyzeCmd.Flags().IntVarP(&analyzeLookback, "before", "b", 0, "Trading sessions before earnings (defaults to config)")
	analyzeCmd.Flags().IntVarP(&analyzeLookahead, "after", "a", 0, "Trading sessions after earnings (defaults to config)")

	analyzeCmd.MarkFlagRequired("ticker")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug, "")
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	lookback := cfg.Analysis.Lookback
	if analyzeLookback != 0 {
		lookback = analyzeLookback
	}
	lookahead := cfg.Analysis.Lookahead
	if analyzeLookahead != 0 {
		lookahead = analyzeLookahead
	}
	if lookback < 1 || lookback > 10 || lookahead < 1 || lookahead > 10 {
		return fmt.Errorf("session window must be between 1 and 10 on each side")
	}

	ticker := strings.ToUpper(strings.TrimSpace(analyzeTicker))

	p, store, _, err := buildStack(cfg, nil, log)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := p.Run(context.Background(), ticker, lookback, lookahead)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No analyzable earnings events for %s\n", ticker)
		return nil
	}

	fmt.Printf("=== %s earnings straddle moves ===\n", ticker)
	fmt.Printf("Window: %d session(s) before, %d after\n\n", lookback, lookahead)
	for _, res := range results {
		fmt.Printf("%s (%s)  strike %.2f  expiry %s\n",
			res.Event.Date.Format("2006-01-02"),
			res.Event.Timing,
			res.Pair.Strike,
			res.Pair.Expiry.Format("2006-01-02"),
		)
		fmt.Printf("  pre %+.2f%%  post %+.2f%%  total %+.2f%%  (%d bars)\n",
			res.PreChange, res.PostChange, res.TotalChange, len(res.Rows))
	}
	return nil
}
