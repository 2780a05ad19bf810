package bridge

import (
	"context"
	"fmt"
)

// OnNoSourceFunc is called when no source recognises a message.
// Return nil to skip the message, return an error to fail.
type OnNoSourceFunc func(ctx context.Context, raw []byte) error

// OnParseErrorFunc is called when a source's Parse fails.
// Return nil to skip the message, return an error to fail.
type OnParseErrorFunc func(ctx context.Context, source string, err error) error

// OnApplyFunc is called after a source decoded a message and before the
// router sees it. The returned context is the navigation context.
type OnApplyFunc func(ctx context.Context, source string, msg Message) context.Context

type hooks struct {
	onNoSource   []OnNoSourceFunc
	onParseError []OnParseErrorFunc
	onApply      []OnApplyFunc
}

// WithOnNoSource adds a hook called when no source recognises a message.
// Multiple hooks are called in order; first error wins.
//
// Example:
//
//	bridge.WithOnNoSource(func(ctx context.Context, raw []byte) error {
//	    logger.Warn().Bytes("raw", raw).Msg("unknown host message")
//	    return nil
//	})
func WithOnNoSource(fn OnNoSourceFunc) Option {
	return func(b *Bridge) {
		b.hooks.onNoSource = append(b.hooks.onNoSource, fn)
	}
}

// WithOnParseError adds a hook called when a source fails to parse.
// Multiple hooks are called in order; first error wins.
func WithOnParseError(fn OnParseErrorFunc) Option {
	return func(b *Bridge) {
		b.hooks.onParseError = append(b.hooks.onParseError, fn)
	}
}

// WithOnApply adds a hook called before a decoded message reaches the router.
// Multiple hooks are called in order, with context chaining through each.
//
// Example:
//
//	bridge.WithOnApply(func(ctx context.Context, source string, msg bridge.Message) context.Context {
//	    return logger.With().Str("source", source).Logger().WithContext(ctx)
//	})
func WithOnApply(fn OnApplyFunc) Option {
	return func(b *Bridge) {
		b.hooks.onApply = append(b.hooks.onApply, fn)
	}
}

// OnApplyHook is an optional interface for sources that enrich the context
// of their own messages. It runs after the global OnApply hooks.
type OnApplyHook interface {
	OnApply(ctx context.Context, msg Message) context.Context
}

func (b *Bridge) callOnApply(ctx context.Context, src Source, msg Message) context.Context {
	name := src.Name()
	for _, fn := range b.hooks.onApply {
		ctx = fn(ctx, name, msg)
	}
	if h, ok := src.(OnApplyHook); ok {
		ctx = h.OnApply(ctx, msg)
	}
	return ctx
}

func (b *Bridge) handleNoSource(ctx context.Context, raw []byte) error {
	for _, fn := range b.hooks.onNoSource {
		if err := fn(ctx, raw); err != nil {
			return err
		}
	}
	if len(b.hooks.onNoSource) > 0 {
		return nil
	}
	return ErrNoSource
}

func (b *Bridge) handleParseError(ctx context.Context, src Source, parseErr error) error {
	name := src.Name()
	for _, fn := range b.hooks.onParseError {
		if err := fn(ctx, name, parseErr); err != nil {
			return err
		}
	}
	if len(b.hooks.onParseError) > 0 {
		return nil
	}
	return fmt.Errorf("parse failed for source %s: %w", name, parseErr)
}
