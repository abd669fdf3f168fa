package main

import (
	"io"
	"log"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/kpisynth/internal/calculation"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

// jsonLogger implements calculation.Logger on zerolog for machine-readable runs
type jsonLogger struct {
	log zerolog.Logger
}

func newJSONLogger(w io.Writer, debug bool) jsonLogger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return jsonLogger{log: zerolog.New(w).Level(level).With().Timestamp().Str("app", "kpisynth").Logger()}
}

func (j jsonLogger) Debugf(format string, args ...any) { j.log.Debug().Msgf(format, args...) }
func (j jsonLogger) Infof(format string, args ...any)  { j.log.Info().Msgf(format, args...) }
func (j jsonLogger) Warnf(format string, args ...any)  { j.log.Warn().Msgf(format, args...) }
func (j jsonLogger) Errorf(format string, args ...any) { j.log.Error().Msgf(format, args...) }

// logger picks the CLI logger: JSON lines with --log-json, the standard log package
// with --debug, otherwise nothing
func logger(cmd *cobra.Command) calculation.Logger {
	debugOn, _ := cmd.Flags().GetBool("debug")
	if logJSON, _ := cmd.Flags().GetBool("log-json"); logJSON {
		return newJSONLogger(cmd.ErrOrStderr(), debugOn)
	}
	if debugOn {
		return simpleCLILogger{}
	}
	return calculation.NopLogger{}
}
