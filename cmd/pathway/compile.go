package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/bjaus/pathway"
)

// patternFlags are the compile options accepted by compile and match. They
// add to whatever the --config file selects.
type patternFlags struct {
	strict    bool
	sensitive bool
	timeout   time.Duration
}

func (f *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.strict, "strict", false, "do not accept an optional trailing slash")
	cmd.Flags().BoolVar(&f.sensitive, "sensitive", false, "match case-sensitively")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "abort a single match after this long")
}

func (f *patternFlags) compileOptions(o *options) ([]pathway.CompileOption, error) {
	var opts []pathway.CompileOption
	if o.configPath != "" {
		cfg, err := o.loadConfig()
		if err != nil {
			return nil, err
		}
		opts = cfg.CompileOptions()
	}
	if f.strict {
		opts = append(opts, pathway.Strict())
	}
	if f.sensitive {
		opts = append(opts, pathway.Sensitive())
	}
	if f.timeout > 0 {
		opts = append(opts, pathway.WithMatchTimeout(f.timeout))
	}
	return opts, nil
}

func (f *patternFlags) compile(o *options, args []string) (*pathway.Pattern, error) {
	opts, err := f.compileOptions(o)
	if err != nil {
		return nil, err
	}
	p, err := pathway.Compile(patternSpec(args), opts...)
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("expression", p.String()).Int("params", len(p.Descriptors())).Msg("pattern compiled")
	return p, nil
}

func newCompileCmd(o *options) *cobra.Command {
	var flags patternFlags

	cmd := &cobra.Command{
		Use:   "compile <pattern> [alternative...]",
		Short: "Show the expression and parameters a pattern compiles to",
		Long: `Compile a path pattern and print the regular expression it becomes along
with its parameter descriptors. Several arguments are compiled as
alternatives of one route.`,
		Example: `  pathway compile /users/:id
  pathway compile --strict '/files/*'
  pathway compile /u/:id /member/:id`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.compile(o, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", pterm.Bold.Sprint("expression:"), p.String())

			desc := p.Descriptors()
			if len(desc) == 0 {
				fmt.Fprintln(out, "no parameters")
				return nil
			}
			rows := make([][]string, 0, len(desc))
			for _, d := range desc {
				rows = append(rows, []string{
					strconv.Itoa(d.Index),
					d.Key(),
					orDash(d.Name),
					strconv.FormatBool(d.Optional),
				})
			}
			return renderTable(out, []string{"Index", "Key", "Name", "Optional"}, rows)
		},
	}

	flags.register(cmd)
	return cmd
}
