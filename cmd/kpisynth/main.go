package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/kpisynth/internal/calendar"
	"github.com/rgehrsitz/kpisynth/internal/config"
	"github.com/rgehrsitz/kpisynth/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kpisynth %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "kpisynth",
	Short: "Synthetic sales KPI dataset generator",
	Long: "Generates a reproducible synthetic sales dataset: an org hierarchy, an account roster and\n" +
		"monthly plan, actual and last-year revenue per account, with windfall and shortfall\n" +
		"adjustments applied to the actuals.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFile(".env")
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Parameter file (.yaml, .yml or .toml); defaults apply when empty")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed (overrides config and KPISYNTH_SEED)")
	rootCmd.PersistentFlags().Int("year", 0, "Simulation year (overrides config and KPISYNTH_YEAR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON lines on stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(versionCmd())
}

// loadParameters resolves parameters from defaults, the config file, the environment
// and finally the seed and year flags
func loadParameters(cmd *cobra.Command) (*domain.Parameters, error) {
	parser := config.NewInputParser()

	params := domain.DefaultParameters()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := parser.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		params = loaded
	}

	if err := config.ApplyEnv(params); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		params.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("year") {
		params.Year, _ = cmd.Flags().GetInt("year")
	}

	if err := parser.ValidateParameters(params); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return params, nil
}

// loadPeriods returns the calendar for the year, from a CSV file when one is given
func loadPeriods(cmd *cobra.Command, year int) ([]domain.Period, error) {
	path, _ := cmd.Flags().GetString("calendar")
	if path == "" {
		return calendar.ForYear(year), nil
	}
	return calendar.LoadCSV(path, year)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
