package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bjaus/pathway"
	"github.com/bjaus/pathway/config"
	"github.com/bjaus/pathway/history"
	"github.com/bjaus/pathway/internal/logging"
	"github.com/bjaus/pathway/middleware"
)

// Replay outcomes.
const (
	outcomeRan        = "ran"
	outcomeHalted     = "halted"
	outcomePrevented  = "prevented"
	outcomeSuppressed = "suppressed"
	outcomePanicked   = "panicked"
	outcomeNoMatch    = "no match"
	outcomeError      = "error"
)

type replayRow struct {
	step    string
	path    string
	route   string
	outcome string
	detail  string
}

// replay runs navigations over a configured route table and records what
// every chain did.
type replay struct {
	opts   *options
	router *pathway.Router
	loc    *history.History

	names    map[*pathway.Route]string
	prevents map[*pathway.Route]bool

	// route being registered; its first evaluation runs before Register
	// returns the *Route
	pendingName    string
	pendingPrevent bool

	step string
	rows []replayRow
}

func newReplay(o *options, cfg *config.Config, initialURL string) (*replay, error) {
	rp := &replay{
		opts:     o,
		names:    make(map[*pathway.Route]string),
		prevents: make(map[*pathway.Route]bool),
		step:     "init",
	}

	var hopts []history.Option
	if initialURL != "" {
		hopts = append(hopts, history.WithInitialURL(initialURL))
	}
	rp.loc = cfg.History(hopts...)

	log := logging.Component(o.log, "replay")
	ropts := append(cfg.RouterOptions(rp.loc, log),
		pathway.WithOnPrevented(func(ctx context.Context, c *pathway.Chain) {
			rp.record(rp.name(c), outcomePrevented, "")
		}),
		pathway.WithOnSuppressed(func(ctx context.Context, c, parent *pathway.Chain) {
			rp.record(rp.name(c), outcomeSuppressed, "stopped by "+rp.name(parent))
		}),
		pathway.WithOnComplete(func(ctx context.Context, c *pathway.Chain, completed bool, d time.Duration) {
			outcome := outcomeHalted
			if completed {
				outcome = outcomeRan
			}
			rp.record(rp.name(c), outcome, describeParams(c.Request().Params))
		}),
		pathway.WithOnNoMatch(func(ctx context.Context, path string) error {
			rp.record("-", outcomeNoMatch, "")
			return nil
		}),
		pathway.WithOnPanic(func(ctx context.Context, c *pathway.Chain, recovered any) error {
			rp.record(rp.name(c), outcomePanicked, fmt.Sprint(recovered))
			return nil
		}),
	)
	rp.router = pathway.New(ropts...)

	rp.router.On(pathway.EventMatch, func(ev *pathway.Event) error {
		if rp.preventing(ev.Chain) {
			ev.Chain.PreventDefault()
		}
		return nil
	})

	for i, rc := range cfg.Routes {
		mw, prevent, err := rp.middleware(rc.Middleware)
		if err != nil {
			return nil, fmt.Errorf("routes[%d] %s: %w", i, rc.DisplayName(), err)
		}
		rp.pendingName, rp.pendingPrevent = rc.DisplayName(), prevent
		rt, err := rp.router.Register(rc.Spec(), mw, func(req *pathway.Request, c *pathway.Chain, next func()) {})
		if err != nil {
			return nil, fmt.Errorf("routes[%d] %s: %w", i, rc.DisplayName(), err)
		}
		rp.names[rt] = rc.DisplayName()
		rp.prevents[rt] = prevent
	}
	rp.pendingName, rp.pendingPrevent = "", false

	return rp, nil
}

// middleware resolves the handler names of a route table entry. "prevent" is
// not a handler: it marks the route so its chains are prevented on match.
func (rp *replay) middleware(names []string) ([]pathway.Handler, bool, error) {
	var handlers []pathway.Handler
	var prevent bool
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case "stop":
			handlers = append(handlers, func(req *pathway.Request, c *pathway.Chain, next func()) {
				c.StopPropagation()
				next()
			})
		case "halt":
			handlers = append(handlers, func(req *pathway.Request, c *pathway.Chain, next func()) {})
		case "log":
			handlers = append(handlers, middleware.Logger(rp.opts.log))
		case "prevent":
			prevent = true
		default:
			return nil, false, fmt.Errorf("unknown middleware %q", name)
		}
	}
	return handlers, prevent, nil
}

func (rp *replay) name(c *pathway.Chain) string {
	if n, ok := rp.names[c.Route()]; ok {
		return n
	}
	return rp.pendingName
}

func (rp *replay) preventing(c *pathway.Chain) bool {
	if _, ok := rp.names[c.Route()]; ok {
		return rp.prevents[c.Route()]
	}
	return rp.pendingPrevent
}

func (rp *replay) record(route, outcome, detail string) {
	rp.rows = append(rp.rows, replayRow{
		step:    rp.step,
		path:    rp.router.Path(),
		route:   route,
		outcome: outcome,
		detail:  detail,
	})
}

// run navigates to each path in turn.
func (rp *replay) run(ctx context.Context, paths []string) {
	for i, path := range paths {
		rp.step = strconv.Itoa(i + 1)
		if err := rp.router.Navigate(ctx, path); err != nil {
			rp.record("-", outcomeError, err.Error())
		}
		rp.opts.log.Info().Str("path", path).Str("url", rp.loc.URL()).Msg("navigated")
	}
}

func (rp *replay) table() [][]string {
	rows := make([][]string, 0, len(rp.rows))
	for _, r := range rp.rows {
		rows = append(rows, []string{r.step, orDash(r.path), r.route, r.outcome, orDash(r.detail)})
	}
	return rows
}

func describeParams(ps pathway.Params) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.Present {
			parts = append(parts, p.Key+"="+p.Value)
		}
	}
	return strings.Join(parts, " ")
}

func newReplayCmd(o *options) *cobra.Command {
	var initialURL string

	cmd := &cobra.Command{
		Use:   "replay <path>...",
		Short: "Replay navigations over a route table",
		Long: `Register the routes of the --config table, navigate to each path in turn
and print what every matching chain did: ran, halted by middleware,
prevented, suppressed by a parent that stopped propagation, or panicked.

Route middleware is given by name:
  stop     stop propagation to later routes for the same path
  halt     end the chain without calling the handler
  prevent  prevent the chain from running when it matches
  log      log the chain with the command's logger`,
		Example: `  pathway replay --config routes.yaml /admin/reports /account
  pathway replay --config routes.toml --url 'https://example.com/#!/users/2' /users/3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.configPath == "" {
				return errNoConfig
			}
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}

			rp, err := newReplay(o, cfg, initialURL)
			if err != nil {
				return err
			}
			rp.run(cmd.Context(), args)

			out := cmd.OutOrStdout()
			if err := renderTable(out, []string{"Step", "Path", "Route", "Outcome", "Detail"}, rp.table()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "location: %s\n", rp.loc.URL())
			return err
		},
	}

	cmd.Flags().StringVar(&initialURL, "url", "", "initial URL of the session history")
	return cmd
}
