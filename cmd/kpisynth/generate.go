package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/kpisynth/internal/calculation"
	"github.com/rgehrsitz/kpisynth/internal/config"
	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/output"
	"github.com/rgehrsitz/kpisynth/internal/store"
)

const defaultOutputDir = "output"

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the dataset and write it to disk",
	Long: "Generate writes org_hierarchy.csv, accounts_dim.csv and sales_monthly.csv into the output\n" +
		"directory, renders the dataset in the chosen format and optionally saves it to a database.",
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("out", "o", "", "Output directory (default $KPISYNTH_OUTPUT_DIR or ./output)")
	generateCmd.Flags().StringP("format", "f", "console", fmt.Sprintf("Summary format %v", output.FormatNames))
	generateCmd.Flags().IntP("workers", "w", 1, "Worker count; more than one draws each account from its own stream")
	generateCmd.Flags().Bool("continue-on-error", false, "Skip accounts that fail instead of aborting the run")
	generateCmd.Flags().String("calendar", "", "Calendar CSV (date,year,month,quarter); generated when empty")
	generateCmd.Flags().String("db-driver", store.DriverSQLite, "Database driver: sqlite3, mysql or pgx")
	generateCmd.Flags().String("db-dsn", "", "Database DSN (default $KPISYNTH_DB_DSN); no database write when empty")
	generateCmd.Flags().Bool("progress", false, "Show a progress bar on stderr")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	params, err := loadParameters(cmd)
	if err != nil {
		return err
	}
	periods, err := loadPeriods(cmd, params.Year)
	if err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	formatter, err := output.GetFormatterByName(formatName)
	if err != nil {
		return err
	}

	engine := calculation.NewEngine(params)
	engine.SetLogger(logger(cmd))
	engine.Debug, _ = cmd.Flags().GetBool("debug")
	engine.Workers, _ = cmd.Flags().GetInt("workers")
	engine.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		engine.Progress = cmd.ErrOrStderr()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ds, err := engine.Generate(ctx, periods)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	for _, s := range ds.Skipped {
		engine.Logger.Warnf("skipped account %s: %s", s.AccountID, s.Reason)
	}

	out := cmd.OutOrStdout()
	outDir := resolve(cmd, "out", config.EnvOutputDir, defaultOutputDir)
	files, err := output.WriteTables(outDir, ds)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}

	if formatName == "console" {
		data, err := formatter.Format(ds)
		if err != nil {
			return fmt.Errorf("failed to format dataset: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		path, err := output.WriteFormatted(outDir, formatter, ds)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}

	if dsn := resolve(cmd, "db-dsn", config.EnvDBDSN, ""); dsn != "" {
		driver, _ := cmd.Flags().GetString("db-driver")
		if err := saveDataset(ctx, driver, dsn, ds); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved run %s to %s\n", ds.RunID, driver)
	}
	return nil
}

func saveDataset(ctx context.Context, driver, dsn string, ds *domain.Dataset) error {
	db, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveDataset(ctx, ds)
}

// resolve returns the flag value, then the environment variable, then the fallback
func resolve(cmd *cobra.Command, flag, env, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}
