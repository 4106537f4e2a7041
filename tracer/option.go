package tracer

import (
	"context"
	"log/slog"

	"github.com/viant/faultline/diff"
	"github.com/viant/faultline/source"
	"github.com/viant/faultline/trace"
)

// MapProvider returns function static map, source.Cache implements it
type MapProvider interface {
	Map(ctx context.Context, id trace.FunctionID) (*source.Map, error)
}

// Option represents tracer option
type Option func(t *Tracer)

// WithMaps sets static map provider used by the detailed tier
func WithMaps(provider MapProvider) Option {
	return func(t *Tracer) {
		t.maps = provider
	}
}

// WithFilter sets application code predicate; rejected functions produce no events
func WithFilter(filter func(fn trace.FunctionID) bool) Option {
	return func(t *Tracer) {
		t.filter = filter
	}
}

// WithVisitCeiling sets max delta captures per function line
func WithVisitCeiling(ceiling int) Option {
	return func(t *Tracer) {
		if ceiling > 0 {
			t.ceiling = ceiling
		}
	}
}

// WithDiffOptions sets differencer options
func WithDiffOptions(options *diff.Options) Option {
	return func(t *Tracer) {
		if options != nil {
			t.diffOptions = options
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		if logger != nil {
			t.logger = logger
		}
	}
}
