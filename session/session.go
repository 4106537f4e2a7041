package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/faultline/config"
	"github.com/viant/faultline/hierarchy"
	"github.com/viant/faultline/project"
	"github.com/viant/faultline/scope"
	"github.com/viant/faultline/source"
	"github.com/viant/faultline/trace"
	"github.com/viant/faultline/tracer"
)

// ErrDiagnosticUnavailable is returned when the detailed re-execution can not produce a diagnosis;
// the report still carries the original outcome
var ErrDiagnosticUnavailable = errors.New("diagnostic unavailable")

const modulePath = "github.com/viant/faultline"

var ownPackages = []string{"config", "diff", "hierarchy", "project", "render", "scope", "session", "source", "trace", "tracer"}

// Body represents an instrumented test body
type Body func(tr *tracer.Tracer) error

// Session runs tests under the two pass tracer and reports failures.
// Tests are traced one at a time.
type Session struct {
	config   *config.Config
	fs       afs.Service
	project  *project.Project
	provider source.Provider
	cache    *source.Cache
	tracer   *tracer.Tracer
	builder  *hierarchy.Builder
	logger   *slog.Logger
	mux      sync.Mutex
	state    *state
	last     *trace.Record
}

// state represents the test being traced through its two passes
type state struct {
	id       string
	test     string
	tier     tracer.Tier
	failure  *trace.Failure // first pass outcome
	detailed *trace.Failure // second pass outcome
	scope    *trace.Scope
}

// New creates a session; the project boundary is detected from config or the working directory
func New(ctx context.Context, cfg *config.Config, options ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ret := &Session{config: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.project == nil {
		root := cfg.Project.Root
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
			root = wd
		}
		exclude := append([]string{}, cfg.Project.Exclude...)
		for _, pkg := range ownPackages {
			exclude = append(exclude, modulePath+"/"+pkg)
		}
		detected, err := project.NewDetector(ret.fs).Detect(ctx, root, exclude...)
		if err != nil {
			return nil, fmt.Errorf("failed to detect project: %w", err)
		}
		ret.project = detected
	}
	if ret.provider == nil {
		ret.provider = source.NewLocator(ret.fs)
	}
	ret.cache = source.NewCache(ret.provider, source.NewMapper())
	ret.tracer = tracer.New(
		tracer.WithMaps(ret.cache),
		tracer.WithFilter(ret.project.Owns),
		tracer.WithVisitCeiling(cfg.Tracer.VisitCeiling),
		tracer.WithDiffOptions(cfg.DiffOptions()),
		tracer.WithLogger(ret.logger),
	)
	ret.builder = hierarchy.New(hierarchy.WithLoopPreview(cfg.Render.LoopPreview), hierarchy.WithLogger(ret.logger))
	ret.logger.Debug("session created", "root", ret.project.Root, "module", ret.project.ModulePath())
	return ret, nil
}

// Tracer returns the session tracer, runners owning execution pass it to instrumented code
func (s *Session) Tracer() *tracer.Tracer {
	return s.tracer
}

// Project returns application code boundary
func (s *Session) Project() *project.Project {
	return s.project
}

// Run executes body as test: a coarse pass, then for a failure a detailed pass over the selected scope
func (s *Session) Run(ctx context.Context, test string, body Body) (*Report, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	defer s.teardown()
	for {
		s.beforeTest(ctx, test)
		if failure := s.execute(body); failure != nil {
			s.onFailure(failure)
		}
		report, rerun, err := s.afterTest(ctx)
		if !rerun {
			return report, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// teardown stops tracing and drops pass state left by a body that did not return
func (s *Session) teardown() {
	s.tracer.End()
	if current := s.state; current != nil {
		failure := current.failure
		if current.tier == tracer.Detailed {
			failure = current.detailed
		}
		if failure != nil && failure.Type == goexitType {
			s.logger.Warn("test body exited, trace discarded", "session", current.id, "test", current.test)
		}
		s.state = nil
		s.tracer.SetScope(nil)
	}
}

// BeforeTest starts tracing test, the tier follows the outcome of the previous pass of the same test
func (s *Session) BeforeTest(ctx context.Context, test string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.beforeTest(ctx, test)
}

// OnFailure records the failure of the running test
func (s *Session) OnFailure(err error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.onFailure(s.failureOf(err))
}

// AfterTest ends tracing; rerun is true when the runner has to execute the same test again for the detailed pass
func (s *Session) AfterTest(ctx context.Context) (report *Report, rerun bool, err error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.afterTest(ctx)
}

func (s *Session) beforeTest(ctx context.Context, test string) {
	if s.state == nil || s.state.test != test || s.state.tier != tracer.Detailed {
		s.state = &state{id: uuid.New().String(), test: test, tier: tracer.Coarse}
		s.tracer.SetScope(nil)
	}
	s.tracer.Begin(ctx, s.state.tier, test)
}

func (s *Session) onFailure(failure *trace.Failure) {
	if s.state == nil {
		return
	}
	if s.state.tier == tracer.Detailed {
		s.state.detailed = failure
		return
	}
	s.state.failure = failure
}

func (s *Session) afterTest(ctx context.Context) (*Report, bool, error) {
	stats := s.tracer.End()
	current := s.state
	if current == nil {
		return nil, false, nil
	}
	passed := current.failure == nil
	if current.tier == tracer.Coarse {
		if passed && !s.config.TracePassing {
			s.state = nil
			return &Report{SessionID: current.id, Test: current.test, Passed: true, Kind: KindPassing}, false, nil
		}
		current.scope = scope.Select(s.tracer.Events(), current.test, s.config.ScopeOptions())
		current.tier = tracer.Detailed
		s.tracer.Reset()
		s.tracer.SetScope(current.scope)
		s.logger.Info("detailed pass scheduled", "session", current.id, "test", current.test, "scope", current.scope.Len())
		return nil, true, nil
	}

	s.state = nil
	s.tracer.SetScope(nil)
	report := &Report{SessionID: current.id, Test: current.test, Passed: passed, Kind: kindOf(passed), Scope: current.scope, Failure: current.failure}
	if (current.detailed == nil) != passed {
		s.logger.Warn("detailed pass outcome differs", "session", current.id, "test", current.test)
		return report, false, fmt.Errorf("%w: %v outcome changed on re-execution", ErrDiagnosticUnavailable, current.test)
	}
	events := s.tracer.Events()
	if len(events) == 0 {
		return report, false, fmt.Errorf("%w: %v was not entered", ErrDiagnosticUnavailable, current.test)
	}
	symptom := current.detailed
	if symptom == nil {
		symptom = current.failure
	}
	input := &hierarchy.Input{Events: events, Buffers: s.tracer.Buffers(), Maps: s.tracer.Maps(), Failure: symptom}
	s.resolveSymptom(ctx, input)
	s.last = s.record(report, input)
	assemble(report, input, s.builder, s.config)
	s.logger.Info("trace report", "session", report.SessionID, "test", report.Test, "passed", report.Passed,
		"lines", len(report.Digest.Lines), "captured", stats.Captured, "skipped", stats.Skipped)
	return report, false, nil
}

// resolveSymptom maps the failing function when it was outside the detailed scope
func (s *Session) resolveSymptom(ctx context.Context, input *hierarchy.Input) {
	location, ok := input.Failure.Innermost()
	if !ok {
		return
	}
	if _, ok := input.Maps[location.Function]; ok || !s.project.Owns(location.Function) {
		return
	}
	m, err := s.cache.Map(ctx, location.Function)
	if err != nil {
		s.logger.Debug("symptom source unavailable", "function", location.Function.String(), "error", err)
		return
	}
	input.Maps[location.Function] = m
}

// Export returns the record of the last reported trace, or nil
func (s *Session) Export() *trace.Record {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.last
}

func (s *Session) record(report *Report, input *hierarchy.Input) *trace.Record {
	ret := &trace.Record{
		SessionID: report.SessionID,
		Test:      report.Test,
		Passed:    report.Passed,
		Scope:     report.Scope,
		Events:    input.Events,
		Failure:   input.Failure,
	}
	seen := map[trace.FunctionID]bool{}
	add := func(fn trace.FunctionID) {
		if seen[fn] {
			return
		}
		seen[fn] = true
		functionRecord := &trace.FunctionRecord{Function: fn, Invocations: input.Buffers[fn]}
		if m := input.Maps[fn]; m != nil {
			functionRecord.Source = m.Function.SourceText()
		}
		ret.Functions = append(ret.Functions, functionRecord)
	}
	for _, fn := range s.tracer.Functions() {
		add(fn)
	}
	for fn := range input.Maps {
		add(fn)
	}
	return ret
}
