package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/kpisynth/internal/calendar"
	"github.com/rgehrsitz/kpisynth/internal/config"
	"github.com/rgehrsitz/kpisynth/internal/org"
	"github.com/rgehrsitz/kpisynth/internal/server"
	"github.com/rgehrsitz/kpisynth/internal/tui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate a parameter file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s is valid\n", args[0])
		fmt.Fprintf(out, "Year %d, seed %d, %d salespeople in the catalog\n", params.Year, params.Seed, len(org.CatalogFor(params).Cities))
		for _, tp := range params.Tiers {
			fmt.Fprintf(out, "  tier %d: accounts [%d,%d), growth [%.2f,%.2f], noise %.2f, sales-driven %.2f, new rate %.2f\n",
				int(tp.Tier), tp.AccountCount.Min, tp.AccountCount.Max, tp.Growth.Min, tp.Growth.Max,
				tp.ActualNoiseSD, tp.SalesDrivenProbability, tp.NewAccountRate)
		}
		return nil
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the monthly calendar used for a year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := loadParameters(cmd)
		if err != nil {
			return err
		}
		periods, err := loadPeriods(cmd, params.Year)
		if err != nil {
			return err
		}
		if err := calendar.Validate(periods); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "date,year,month,quarter")
		for _, p := range periods {
			fmt.Fprintf(out, "%s,%d,%d,%s\n", p.Date.Format("2006-01-02"), p.Year, int(p.Month), p.Quarter)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve datasets over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := loadParameters(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		release, _ := cmd.Flags().GetBool("release")
		workers, _ := cmd.Flags().GetInt("workers")

		srv := server.New(params, server.Options{
			Release: release,
			Workers: workers,
			Logger:  logger(cmd),
		})
		fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
		return srv.Run(addr)
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse a generated dataset in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := loadParameters(cmd)
		if err != nil {
			return err
		}
		periods, err := loadPeriods(cmd, params.Year)
		if err != nil {
			return err
		}
		workers, _ := cmd.Flags().GetInt("workers")

		p := tea.NewProgram(tui.NewModel(params, periods, workers), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running browser: %w", err)
		}
		return nil
	},
}

func init() {
	calendarCmd.Flags().String("calendar", "", "Calendar CSV to validate and print")

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("release", false, "Run gin in release mode")
	serveCmd.Flags().IntP("workers", "w", 1, "Worker count per generation")

	browseCmd.Flags().String("calendar", "", "Calendar CSV; generated when empty")
	browseCmd.Flags().IntP("workers", "w", 1, "Worker count")
}
