package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "straddle",
	Short: "Earnings straddle analyzer",
	Long: `Straddle analyzes how at-the-money option straddles move around
earnings announcements: it fetches historical earnings dates, resolves the
nearest-strike call/put pair, aligns their intraday bars, and reports the
pre- and post-earnings percentage moves.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
