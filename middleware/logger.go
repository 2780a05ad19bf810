package middleware

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bjaus/pathway"
)

// Logger returns a handler that logs the start and end of every chain.
func Logger(log zerolog.Logger) pathway.Handler {
	log = log.With().Str("component", "pathway.chain").Logger()

	return func(req *pathway.Request, c *pathway.Chain, next func()) {
		l := log.With().
			Str("chain", c.ID().String()).
			Str("route", req.RouteName()).
			Str("path", req.Path).
			Logger()
		l.Debug().Msg("chain started")

		start := time.Now()
		defer func() {
			if v := recover(); v != nil {
				l.Error().Interface("panic", v).Dur("took", time.Since(start)).Msg("chain panicked")
				panic(v)
			}
			l.Info().
				Bool("completed", c.Pending() == 0).
				Dur("took", time.Since(start)).
				Msg("chain finished")
		}()

		next()
	}
}
