// Package middleware provides instrumentation handlers for pathway chains.
//
// The handlers are meant to run first in every chain, so install them as
// defaults:
//
//	d := pathway.NewDefaults(
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(middleware.WithNamespace("app")),
//	    middleware.Logger(logger),
//	)
//	r := pathway.New(pathway.WithDefaults(d))
//
// Each handler wraps the rest of the chain: it calls next and inspects the
// chain when next returns. A chain whose Pending count is zero at that
// point reached its terminal handler; otherwise a handler halted it.
package middleware
