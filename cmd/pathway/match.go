package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newMatchCmd(o *options) *cobra.Command {
	var flags patternFlags

	cmd := &cobra.Command{
		Use:   "match <pattern> <path>...",
		Short: "Match paths against a pattern",
		Long: `Match each path against a single pattern and print the decoded
parameters. Absent optional parameters show as <absent>; parameters that
failed to decode keep their raw value and report the error.`,
		Example: `  pathway match /users/:id /users/7 /users/7/edit
  pathway match --sensitive '/Docs/:page?' /Docs /docs/intro`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.compile(o, args[:1])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(args)-1)
			for _, path := range args[1:] {
				res, err := p.Match(path)
				if err != nil {
					// a timed out match is reported per path
					rows = append(rows, []string{path, "error", "-", err.Error()})
					continue
				}
				if !res.Matched {
					rows = append(rows, []string{path, "false", "-", "-"})
					continue
				}

				var params []string
				var errs []error
				for _, prm := range res.Params {
					switch {
					case !prm.Present:
						params = append(params, prm.Key+"=<absent>")
					case prm.Err != nil:
						params = append(params, prm.Key+"="+strconv.Quote(prm.Value))
						errs = append(errs, prm.Err)
					default:
						params = append(params, prm.Key+"="+prm.Value)
					}
				}
				rows = append(rows, []string{path, "true", orDash(strings.Join(params, " ")), orDash(joinErrors(errs))})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Path", "Matched", "Params", "Errors"}, rows)
		},
	}

	flags.register(cmd)
	return cmd
}

func joinErrors(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	return strings.ReplaceAll(errors.Join(errs...).Error(), "\n", "; ")
}
