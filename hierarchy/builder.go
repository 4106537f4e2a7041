package hierarchy

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/viant/faultline/source"
	"github.com/viant/faultline/trace"
)

// DefaultLoopPreview number of leading values shown for a value captured many times
const DefaultLoopPreview = 3

// Input represents the captured data of one detailed trace
type Input struct {
	Events  []trace.EventRecord
	Buffers map[trace.FunctionID]*trace.Invocations
	Maps    map[trace.FunctionID]*source.Map
	Failure *trace.Failure
}

// Builder reconstructs a call hierarchy from a detailed trace
type Builder struct {
	loopPreview int
	logger      *slog.Logger
}

// Option represents builder option
type Option func(b *Builder)

// WithLoopPreview sets number of leading values kept when summarizing repeated captures
func WithLoopPreview(preview int) Option {
	return func(b *Builder) {
		if preview > 0 {
			b.loopPreview = preview
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a builder
func New(options ...Option) *Builder {
	ret := &Builder{loopPreview: DefaultLoopPreview, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// frame is an open call node during the walk
type frame struct {
	node        *Node
	fn          trace.FunctionID
	invocation  int
	m           *source.Map
	invocations *trace.Invocations
	queues      map[string][]int
	last        map[string]int
	flushed     int // index of the first unflushed line in m.Lines()
	opaque      bool
}

type walk struct {
	*Builder
	input       *Input
	forest      *Forest
	stack       []*frame
	ordinals    map[trace.FunctionID]int
	diagnostics trace.Diagnostics
}

// Build walks the event log and returns the call forest. Every top level CALL becomes a root.
func (b *Builder) Build(input *Input) *Forest {
	w := &walk{
		Builder:     b,
		input:       input,
		forest:      &Forest{Diagnostics: trace.Diagnostics{}},
		ordinals:    map[trace.FunctionID]int{},
		diagnostics: trace.Diagnostics{},
	}
	for _, event := range input.Events {
		switch event.Kind {
		case trace.Call:
			w.enter(event.Function)
		case trace.Return:
			w.exit(event.Function)
		}
	}
	for len(w.stack) > 0 {
		w.pop()
	}
	w.symptom()
	w.forest.Diagnostics = w.diagnostics
	b.logger.Debug("hierarchy built", "roots", len(w.forest.Roots), "events", len(input.Events),
		"missingSource", w.diagnostics[trace.MissingSource], "attributionMiss", w.diagnostics[trace.AttributionMiss],
		"missingDelta", w.diagnostics[trace.MissingDelta])
	return w.forest
}

func (w *walk) top() *frame {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

func (w *walk) enter(fn trace.FunctionID) {
	ordinal := w.ordinals[fn]
	w.ordinals[fn]++
	call := &Call{Function: fn, Invocation: ordinal}
	invocations := w.input.Buffers[fn]
	if invocations != nil {
		call.Args = invocations.CallArgs(ordinal)
	}
	node := &Node{Call: call}
	child := &frame{node: node, fn: fn, invocation: ordinal, invocations: invocations, last: map[string]int{}}
	if m := w.input.Maps[fn]; m != nil {
		child.m = m
		child.queues = m.CallSites()
	} else {
		call.Missing = true
		w.diagnostics.Add(trace.MissingSource)
	}

	parent := w.top()
	if parent == nil {
		w.forest.Roots = append(w.forest.Roots, node)
		w.stack = append(w.stack, child)
		return
	}
	if parent.m != nil {
		callee := fn.Callee()
		if line, ok := parent.callSite(callee); ok {
			call.Line = line
			w.flush(parent, func(line int) bool { return line < call.Line })
		} else {
			call.Opaque = true
			child.opaque = true
			w.diagnostics.Add(trace.AttributionMiss)
		}
	}
	parent.node.Children = append(parent.node.Children, node)
	w.stack = append(w.stack, child)
}

// callSite pops the next call site line of callee; once the queue is exhausted the last line is reused
func (f *frame) callSite(callee string) (int, bool) {
	queue, ok := f.queues[callee]
	if !ok {
		return 0, false
	}
	if len(queue) == 0 {
		line, ok := f.last[callee]
		return line, ok
	}
	f.queues[callee] = queue[1:]
	f.last[callee] = queue[0]
	return queue[0], true
}

func (w *walk) exit(fn trace.FunctionID) {
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].fn != fn {
			continue
		}
		for len(w.stack) > i {
			w.pop()
		}
		return
	}
}

func (w *walk) pop() {
	top := w.top()
	w.flush(top, func(int) bool { return true })
	w.stack = w.stack[:len(w.stack)-1]
}

// flush appends leaves for unflushed static lines accepted by include, in line order
func (w *walk) flush(f *frame, include func(line int) bool) {
	if f.m == nil {
		return
	}
	lines := f.m.Lines()
	for f.flushed < len(lines) && include(lines[f.flushed]) {
		line := lines[f.flushed]
		f.flushed++
		if f.opaque {
			continue
		}
		w.leaves(f, line)
	}
}

func (w *walk) leaves(f *frame, line int) {
	var batches []*trace.Batch
	if f.invocations != nil {
		batches = f.invocations.Batches(line, f.invocation)
	}
	context := f.m.Function.Line(line)
	seen := map[string]bool{}
	for _, assignment := range f.m.Assignments[line] {
		if seen[assignment.Name] {
			continue
		}
		seen[assignment.Name] = true
		var targets []string
		values := map[string][]string{}
		for _, batch := range batches {
			for _, delta := range batch.Deltas {
				if delta.Name != assignment.Name {
					continue
				}
				target := delta.Target()
				if _, ok := values[target]; !ok {
					targets = append(targets, target)
				}
				values[target] = append(values[target], delta.Value)
			}
		}
		if len(targets) == 0 {
			w.diagnostics.Add(trace.MissingDelta)
			continue
		}
		for _, target := range targets {
			leaf := &Assignment{Line: line, Context: context, Name: target, Value: w.summarize(values[target])}
			if count := len(values[target]); count > 1 {
				leaf.Count = count
			}
			f.node.Children = append(f.node.Children, &Node{Assignment: leaf})
		}
	}
}

// summarize joins values, keeping the leading preview and the last one when there are more
func (w *walk) summarize(values []string) string {
	if len(values) == 1 {
		return values[0]
	}
	if len(values) <= w.loopPreview+1 {
		return strings.Join(values, ", ") + " (" + strconv.Itoa(len(values)) + " values)"
	}
	head := strings.Join(values[:w.loopPreview], ", ")
	return head + ", ..., " + values[len(values)-1] + " (" + strconv.Itoa(len(values)) + " values)"
}

// symptom appends the failure leaf to the last root when the failing frame's source is known
func (w *walk) symptom() {
	location, ok := w.input.Failure.Innermost()
	if !ok {
		return
	}
	m := w.input.Maps[location.Function]
	if m == nil {
		return
	}
	failure := w.input.Failure
	leaf := &Node{Assignment: &Assignment{
		Line:    location.Line,
		Context: m.Function.Line(location.Line),
		Name:    failure.Type,
		Value:   failure.Message,
		Symptom: true,
	}}
	if len(w.forest.Roots) == 0 {
		w.forest.Roots = append(w.forest.Roots, leaf)
		return
	}
	last := w.forest.Roots[len(w.forest.Roots)-1]
	last.Children = append(last.Children, leaf)
}
