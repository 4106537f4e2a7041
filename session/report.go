package session

import (
	"fmt"

	"github.com/viant/faultline/config"
	"github.com/viant/faultline/hierarchy"
	"github.com/viant/faultline/render"
	"github.com/viant/faultline/source"
	"github.com/viant/faultline/trace"
)

// Kind represents report kind
type Kind string

const (
	KindFailure Kind = "failure"
	KindPassing Kind = "passing"
)

func kindOf(passed bool) Kind {
	if passed {
		return KindPassing
	}
	return KindFailure
}

// Report represents a traced test outcome
type Report struct {
	SessionID   string            `yaml:"sessionId"`
	Test        string            `yaml:"test"`
	Passed      bool              `yaml:"passed"`
	Kind        Kind              `yaml:"kind"`
	Digest      *render.Digest    `yaml:"digest,omitempty"`
	Forest      *hierarchy.Forest `yaml:"forest,omitempty"`
	Scope       *trace.Scope      `yaml:"scope,omitempty"`
	Diagnostics trace.Diagnostics `yaml:"diagnostics,omitempty"`
	Failure     *trace.Failure    `yaml:"failure,omitempty"`
}

// assemble builds the forest and digest of report
func assemble(report *Report, input *hierarchy.Input, builder *hierarchy.Builder, cfg *config.Config) {
	report.Forest = builder.Build(input)
	report.Diagnostics = report.Forest.Diagnostics
	report.Digest = render.NewDigest(report.Forest, sources(report.Scope, input), &cfg.Render.Budget)
}

// sources returns function sources in scope order, the traced root when the scope is empty
func sources(selected *trace.Scope, input *hierarchy.Input) []string {
	var entries []trace.FunctionID
	if selected != nil {
		entries = selected.Entries
	}
	if len(entries) == 0 && len(input.Events) > 0 {
		entries = []trace.FunctionID{input.Events[0].Function}
	}
	var result []string
	for _, fn := range entries {
		if m := input.Maps[fn]; m != nil {
			result = append(result, m.Function.Source())
		}
	}
	return result
}

// Replay rebuilds a report from a record without executing anything
func Replay(record *trace.Record, cfg *config.Config) (*Report, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cache := source.NewCache(nil, source.NewMapper())
	input := &hierarchy.Input{
		Events:  record.Events,
		Buffers: map[trace.FunctionID]*trace.Invocations{},
		Maps:    map[trace.FunctionID]*source.Map{},
		Failure: record.Failure,
	}
	for _, functionRecord := range record.Functions {
		if functionRecord.Invocations != nil {
			input.Buffers[functionRecord.Function] = functionRecord.Invocations
		}
		if functionRecord.Source == nil {
			continue
		}
		text := functionRecord.Source
		m, err := cache.Put(source.NewFunction(functionRecord.Function, text.Start, text.Text, text.Owner))
		if err != nil {
			return nil, fmt.Errorf("failed to map %v: %w", functionRecord.Function, err)
		}
		input.Maps[functionRecord.Function] = m
	}
	report := &Report{
		SessionID: record.SessionID,
		Test:      record.Test,
		Passed:    record.Passed,
		Kind:      kindOf(record.Passed),
		Scope:     record.Scope,
		Failure:   record.Failure,
	}
	builder := hierarchy.New(hierarchy.WithLoopPreview(cfg.Render.LoopPreview))
	assemble(report, input, builder, cfg)
	return report, nil
}
