package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bjaus/pathway/config"
	"github.com/bjaus/pathway/internal/logging"
)

var errNoConfig = errors.New("a route table is required, pass --config")

// options are the persistent flags shared by every subcommand.
type options struct {
	verbosity  int
	configPath string
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "pathway",
		Short: "Inspect route patterns and replay navigations",
		Long: `pathway compiles path patterns to the expressions the router uses,
matches paths against them and replays navigations over a route table loaded
from a YAML or TOML file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logging.Setup(opts.verbosity, cmd.ErrOrStderr())
			if !logging.IsTerminal(cmd.OutOrStdout()) {
				pterm.DisableStyling()
			}
			opts.log.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "route table file (.yaml, .yml or .toml)")

	cmd.AddCommand(newCompileCmd(opts), newMatchCmd(opts), newReplayCmd(opts))
	return cmd
}

// loadConfig reads and validates --config. Without the flag only defaults
// and PATHWAY_* variables apply.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o.log.Debug().
		Str("config", o.configPath).
		Str("mode", cfg.Mode).
		Int("routes", len(cfg.Routes)).
		Msg("configuration loaded")
	return cfg, nil
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// patternSpec turns positional arguments into a pattern specification: a
// single string, or a list of alternatives.
func patternSpec(args []string) any {
	if len(args) == 1 {
		return args[0]
	}
	return args
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
