package tracer

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/viant/faultline/diff"
	"github.com/viant/faultline/source"
	"github.com/viant/faultline/trace"
)

// DefaultVisitCeiling max number of delta captures per (file, function, line)
const DefaultVisitCeiling = 10

// Tier represents tracing detail level
type Tier int

const (
	// Off no events are recorded
	Off Tier = iota
	// Coarse records CALL and RETURN with depth only
	Coarse
	// Detailed records line deltas for functions in scope
	Detailed
)

func (t Tier) String() string {
	switch t {
	case Coarse:
		return "coarse"
	case Detailed:
		return "detailed"
	}
	return "off"
}

// Frame represents an event source frame. For LINE events the bindings are
// the ones visible before the line executes.
type Frame struct {
	Location trace.Location
	Bindings trace.Snapshot
}

// Stats represents session counters
type Stats struct {
	Events      int
	Lines       int
	Captured    int
	Skipped     int
	Dropped     int
	Diagnostics trace.Diagnostics
}

type visitKey struct {
	fn   trace.FunctionID
	line int
}

// Tracer receives execution events for one test at a time and records the event log,
// per function delta buffers and static maps.
// One instance supports exactly one active trace session.
type Tracer struct {
	mux         sync.Mutex
	ctx         context.Context
	tier        Tier
	test        string
	root        trace.FunctionID
	active      bool
	depth       int
	scope       *trace.Scope
	events      []trace.EventRecord
	buffers     map[trace.FunctionID]*trace.Invocations
	visits      map[visitKey]int
	stack       CallStack
	maps        MapProvider
	mapped      map[trace.FunctionID]*source.Map
	order       []trace.FunctionID
	filter      func(fn trace.FunctionID) bool
	ceiling     int
	diffOptions *diff.Options
	logger      *slog.Logger
	stats       Stats
}

// New creates a tracer
func New(options ...Option) *Tracer {
	ret := &Tracer{
		ceiling:     DefaultVisitCeiling,
		diffOptions: diff.DefaultOptions(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.reset()
	return ret
}

// Begin activates tracing for test, transient state of any previous execution is dropped
func (t *Tracer) Begin(ctx context.Context, tier Tier, test string) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.reset()
	t.ctx = ctx
	t.tier = tier
	t.test = test
	t.logger.Debug("trace started", "test", test, "tier", tier.String(), "scope", t.scope.Len())
}

// End deactivates tracing, it is safe to call more than once
func (t *Tracer) End() Stats {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.tier != Off {
		t.logger.Debug("trace ended", "test", t.test, "tier", t.tier.String(),
			"events", t.stats.Events, "lines", t.stats.Lines, "captured", t.stats.Captured,
			"skipped", t.stats.Skipped, "dropped", t.stats.Dropped)
	}
	t.tier = Off
	t.stack.Reset()
	return t.stats
}

// Reset clears events, buffers and counters; static maps held by the provider persist
func (t *Tracer) Reset() {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.reset()
}

func (t *Tracer) reset() {
	t.active = false
	t.depth = 0
	t.root = trace.FunctionID{}
	t.events = nil
	t.buffers = map[trace.FunctionID]*trace.Invocations{}
	t.visits = map[visitKey]int{}
	t.mapped = map[trace.FunctionID]*source.Map{}
	t.order = nil
	t.stack.Reset()
	t.stats = Stats{Diagnostics: trace.Diagnostics{}}
}

// SetScope restricts the detailed tier to scope, the test root is always traced
func (t *Tracer) SetScope(scope *trace.Scope) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.scope = scope
}

// Tier returns active tier
func (t *Tracer) Tier() Tier {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.tier
}

// OnEvent handles a single execution event, it runs synchronously on the traced goroutine
func (t *Tracer) OnEvent(kind trace.EventKind, frame *Frame) {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.tier == Off || frame == nil {
		return
	}
	fn := frame.Location.Function
	if !t.active {
		if kind != trace.Call || !t.isRoot(fn) {
			return
		}
		t.active = true
		t.root = fn
	}
	if !t.admit(fn) {
		return
	}
	switch kind {
	case trace.Call:
		t.onCall(fn, frame)
	case trace.Line:
		t.onLine(fn, frame)
	case trace.Return:
		t.onReturn(fn, frame)
	}
}

func (t *Tracer) isRoot(fn trace.FunctionID) bool {
	return t.test == "" || fn.Name == t.test || fn.Qualified() == t.test
}

func (t *Tracer) admit(fn trace.FunctionID) bool {
	if fn == t.root {
		return true
	}
	if t.filter != nil && !t.filter(fn) {
		return false
	}
	return t.tier == Coarse || t.scope.Contains(fn)
}

func (t *Tracer) onCall(fn trace.FunctionID, frame *Frame) {
	t.stats.Events++
	t.events = append(t.events, trace.EventRecord{Function: fn, Kind: trace.Call, Depth: t.depth})
	t.depth++
	if t.tier != Detailed {
		return
	}
	t.resolve(fn)
	invocations := t.invocations(fn)
	ordinal := invocations.Calls
	invocations.Calls++
	bindings := diff.Capture(frame.Bindings, t.diffOptions)
	invocations.Args = append(invocations.Args, diff.Deltas(nil, bindings, t.diffOptions))
	t.stack.Push(&ShadowFrame{Function: fn, Invocation: ordinal, Line: frame.Location.Line, Bindings: bindings})
}

func (t *Tracer) onLine(fn trace.FunctionID, frame *Frame) {
	if t.tier != Detailed {
		return
	}
	top := t.stack.Top()
	if top == nil || top.Function != fn {
		return
	}
	t.stats.Lines++
	line := frame.Location.Line
	key := visitKey{fn: fn, line: line}
	if t.visits[key] >= t.ceiling {
		t.stats.Skipped++
		top.Line = line
		return
	}
	t.visits[key]++
	bindings := diff.Capture(frame.Bindings, t.diffOptions)
	t.store(top, line, diff.Deltas(top.Bindings, bindings, t.diffOptions), false)
	top.Bindings = bindings
	top.Line = line
}

func (t *Tracer) onReturn(fn trace.FunctionID, frame *Frame) {
	if t.depth == 0 {
		return
	}
	if t.tier == Detailed {
		if top := t.stack.Top(); top != nil && top.Function == fn {
			if len(frame.Bindings) > 0 {
				bindings := diff.Capture(frame.Bindings, t.diffOptions)
				t.store(top, frame.Location.Line, diff.Deltas(top.Bindings, bindings, t.diffOptions), true)
			}
			t.stack.Pop()
		}
	}
	t.stats.Events++
	t.depth--
	t.events = append(t.events, trace.EventRecord{Function: fn, Kind: trace.Return, Depth: t.depth})
	if t.depth == 0 {
		t.active = false
	}
}

// store appends deltas as batches keyed by their attributed assignment lines
func (t *Tracer) store(top *ShadowFrame, line int, deltas []trace.RuntimeAssignment, inclusive bool) {
	if len(deltas) == 0 {
		return
	}
	m := t.mapped[top.Function]
	var lines []int
	grouped := map[int][]trace.RuntimeAssignment{}
	for _, delta := range deltas {
		target := attribute(m, top.Line, line, delta.Name, inclusive)
		if _, ok := grouped[target]; !ok {
			lines = append(lines, target)
		}
		grouped[target] = append(grouped[target], delta)
	}
	invocations := t.invocations(top.Function)
	for _, target := range lines {
		if len(invocations.Lines[target]) >= t.ceiling {
			t.stats.Dropped++
			continue
		}
		invocations.Lines[target] = append(invocations.Lines[target], &trace.Batch{Invocation: top.Invocation, Deltas: grouped[target]})
		t.stats.Captured++
	}
}

// attribute returns the line a delta observed at curr belongs to: the latest static assignment
// of name executed since prev, or prev itself when the static map has none.
// prev >= curr is a loop back edge: the body tail after prev ran first, then the loop head up to curr.
func attribute(m *source.Map, prev, curr int, name string, inclusive bool) int {
	if m == nil {
		return prev
	}
	lines := m.AssignmentLines(name)
	best := -1
	if prev < curr || (inclusive && prev == curr) {
		for _, line := range lines {
			if line >= prev && (line < curr || (inclusive && line == curr)) {
				best = line
			}
		}
	} else {
		for _, line := range lines {
			if line >= prev {
				best = line
			}
		}
		if best == -1 {
			for _, line := range lines {
				if line < curr {
					best = line
				}
			}
		}
	}
	if best == -1 {
		return prev
	}
	return best
}

func (t *Tracer) resolve(fn trace.FunctionID) {
	if _, ok := t.mapped[fn]; ok {
		return
	}
	t.order = append(t.order, fn)
	if t.maps == nil {
		t.mapped[fn] = nil
		return
	}
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := t.maps.Map(ctx, fn)
	if err != nil {
		t.stats.Diagnostics.Add(trace.MissingSource)
		t.logger.Debug("static mapping skipped", "function", fn.String(), "error", err)
	}
	t.mapped[fn] = m
}

func (t *Tracer) invocations(fn trace.FunctionID) *trace.Invocations {
	ret, ok := t.buffers[fn]
	if !ok {
		ret = trace.NewInvocations()
		t.buffers[fn] = ret
	}
	return ret
}

// Events returns a copy of the event log
func (t *Tracer) Events() []trace.EventRecord {
	t.mux.Lock()
	defer t.mux.Unlock()
	return append([]trace.EventRecord(nil), t.events...)
}

// Buffers returns per function invocation buffers
func (t *Tracer) Buffers() map[trace.FunctionID]*trace.Invocations {
	t.mux.Lock()
	defer t.mux.Unlock()
	result := make(map[trace.FunctionID]*trace.Invocations, len(t.buffers))
	for k, v := range t.buffers {
		result[k] = v
	}
	return result
}

// Maps returns static maps resolved during the session
func (t *Tracer) Maps() map[trace.FunctionID]*source.Map {
	t.mux.Lock()
	defer t.mux.Unlock()
	result := make(map[trace.FunctionID]*source.Map, len(t.mapped))
	for k, v := range t.mapped {
		if v != nil {
			result[k] = v
		}
	}
	return result
}

// Functions returns functions seen by the detailed tier in first seen order
func (t *Tracer) Functions() []trace.FunctionID {
	t.mux.Lock()
	defer t.mux.Unlock()
	return append([]trace.FunctionID(nil), t.order...)
}

// Root returns the traced test root function
func (t *Tracer) Root() trace.FunctionID {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.root
}

// Stats returns session counters
func (t *Tracer) Stats() Stats {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.stats
}
