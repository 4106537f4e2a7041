package hierarchy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/faultline/hierarchy"
	"github.com/viant/faultline/source"
	"github.com/viant/faultline/trace"
)

const testFile = "/app/calc/calc_test.go"

var (
	incID     = trace.FunctionID{File: testFile, Package: "calc", Name: "inc"}
	calcID    = trace.FunctionID{File: testFile, Package: "calc", Name: "TestCalc"}
	loopID    = trace.FunctionID{File: testFile, Package: "calc", Name: "TestLoop"}
	dynamicID = trace.FunctionID{File: testFile, Package: "calc", Name: "TestDynamic"}
)

var sources = map[trace.FunctionID]*source.Function{
	incID: source.NewFunction(incID, 10, `func inc(x int) int {
	y := x + 1
	return y
}`, ""),
	calcID: source.NewFunction(calcID, 40, `func TestCalc(t *testing.T) {
	got := inc(2)
	if got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
}`, ""),
	loopID: source.NewFunction(loopID, 50, `func TestLoop(t *testing.T) {
	total := 0
	for i := 1; i <= 3; i++ {
		total += inc(i)
	}
}`, ""),
	dynamicID: source.NewFunction(dynamicID, 60, `func TestDynamic(t *testing.T) {
	fn := inc
	fn(2)
}`, ""),
}

func maps(t *testing.T, ids ...trace.FunctionID) map[trace.FunctionID]*source.Map {
	result := map[trace.FunctionID]*source.Map{}
	mapper := source.NewMapper()
	for _, id := range ids {
		m, err := mapper.Map(sources[id])
		require.NoError(t, err)
		result[id] = m
	}
	return result
}

func create(name, value string) trace.RuntimeAssignment {
	return trace.RuntimeAssignment{Name: name, Value: value, Kind: trace.Create}
}

func batch(invocation int, deltas ...trace.RuntimeAssignment) *trace.Batch {
	return &trace.Batch{Invocation: invocation, Deltas: deltas}
}

func invoke(root trace.FunctionID, calls int, callee trace.FunctionID) []trace.EventRecord {
	events := []trace.EventRecord{{Function: root, Kind: trace.Call, Depth: 0}}
	for i := 0; i < calls; i++ {
		events = append(events,
			trace.EventRecord{Function: callee, Kind: trace.Call, Depth: 1},
			trace.EventRecord{Function: callee, Kind: trace.Return, Depth: 1})
	}
	return append(events, trace.EventRecord{Function: root, Kind: trace.Return, Depth: 0})
}

func call(fn trace.FunctionID, invocation, line int, args []trace.RuntimeAssignment, children ...*hierarchy.Node) *hierarchy.Node {
	return &hierarchy.Node{Call: &hierarchy.Call{Function: fn, Invocation: invocation, Line: line, Args: args}, Children: children}
}

func leaf(line int, context, name, value string) *hierarchy.Node {
	return &hierarchy.Node{Assignment: &hierarchy.Assignment{Line: line, Context: context, Name: name, Value: value}}
}

func TestBuilder_Build(t *testing.T) {
	incBuffers := func(values ...string) *trace.Invocations {
		ret := trace.NewInvocations()
		for i, value := range values {
			ret.Calls++
			ret.Args = append(ret.Args, []trace.RuntimeAssignment{create("x", value[:1])})
			ret.Lines[11] = append(ret.Lines[11], batch(i, create("y", value[1:])))
		}
		return ret
	}

	var testCases = []struct {
		description string
		input       *hierarchy.Input
		expect      []*hierarchy.Node
		diagnostics trace.Diagnostics
	}{
		{
			description: "single call with symptom",
			input: &hierarchy.Input{
				Events: invoke(calcID, 1, incID),
				Buffers: map[trace.FunctionID]*trace.Invocations{
					incID:  incBuffers("23"),
					calcID: {Calls: 1, Args: [][]trace.RuntimeAssignment{nil}, Lines: map[int][]*trace.Batch{41: {batch(0, create("got", "3"))}}},
				},
				Maps:    maps(t, incID, calcID),
				Failure: &trace.Failure{Type: "Fatal", Message: "expected 4, got 3", Frames: []trace.Location{{Function: calcID, Line: 43}}},
			},
			expect: []*hierarchy.Node{
				call(calcID, 0, 0, nil,
					call(incID, 0, 41, []trace.RuntimeAssignment{create("x", "2")},
						leaf(11, "y := x + 1", "y", "3"),
					),
					leaf(41, "got := inc(2)", "got", "3"),
					&hierarchy.Node{Assignment: &hierarchy.Assignment{Line: 43, Context: `t.Fatalf("expected 4, got %v", got)`, Name: "Fatal", Value: "expected 4, got 3", Symptom: true}},
				),
			},
			diagnostics: trace.Diagnostics{trace.MissingDelta: 3},
		},
		{
			description: "repeated invocations keep their own deltas",
			input: &hierarchy.Input{
				Events: invoke(loopID, 3, incID),
				Buffers: map[trace.FunctionID]*trace.Invocations{
					incID: incBuffers("12", "23", "34"),
					loopID: {Calls: 1, Args: [][]trace.RuntimeAssignment{nil}, Lines: map[int][]*trace.Batch{
						51: {batch(0, create("total", "0"))},
						53: {batch(0, trace.RuntimeAssignment{Name: "total", Value: "2", Kind: trace.Update}),
							batch(0, trace.RuntimeAssignment{Name: "total", Value: "5", Kind: trace.Update}),
							batch(0, trace.RuntimeAssignment{Name: "total", Value: "9", Kind: trace.Update})},
					}},
				},
				Maps: maps(t, incID, loopID),
			},
			expect: []*hierarchy.Node{
				call(loopID, 0, 0, nil,
					leaf(51, "total := 0", "total", "0"),
					call(incID, 0, 53, []trace.RuntimeAssignment{create("x", "1")}, leaf(11, "y := x + 1", "y", "2")),
					call(incID, 1, 53, []trace.RuntimeAssignment{create("x", "2")}, leaf(11, "y := x + 1", "y", "3")),
					call(incID, 2, 53, []trace.RuntimeAssignment{create("x", "3")}, leaf(11, "y := x + 1", "y", "4")),
					&hierarchy.Node{Assignment: &hierarchy.Assignment{Line: 53, Context: "total += inc(i)", Name: "total", Value: "2, 5, 9 (3 values)", Count: 3}},
				),
			},
			diagnostics: trace.Diagnostics{trace.MissingDelta: 8},
		},
		{
			description: "dynamic call is opaque",
			input: &hierarchy.Input{
				Events: invoke(dynamicID, 1, incID),
				Buffers: map[trace.FunctionID]*trace.Invocations{
					incID: incBuffers("23"),
				},
				Maps: maps(t, incID, dynamicID),
			},
			expect: []*hierarchy.Node{
				call(dynamicID, 0, 0, nil,
					&hierarchy.Node{Call: &hierarchy.Call{Function: incID, Invocation: 0, Args: []trace.RuntimeAssignment{create("x", "2")}, Opaque: true}},
				),
			},
			diagnostics: trace.Diagnostics{trace.AttributionMiss: 1, trace.MissingDelta: 2},
		},
		{
			description: "missing source yields childless node and no symptom",
			input: &hierarchy.Input{
				Events: invoke(calcID, 1, incID),
				Buffers: map[trace.FunctionID]*trace.Invocations{
					incID: incBuffers("23"),
				},
				Maps:    maps(t, calcID),
				Failure: &trace.Failure{Type: "panic", Message: "boom", Frames: []trace.Location{{Function: incID, Line: 11}}},
			},
			expect: []*hierarchy.Node{
				call(calcID, 0, 0, nil,
					&hierarchy.Node{Call: &hierarchy.Call{Function: incID, Invocation: 0, Line: 41, Args: []trace.RuntimeAssignment{create("x", "2")}, Missing: true}},
				),
			},
			diagnostics: trace.Diagnostics{trace.MissingSource: 1, trace.MissingDelta: 2},
		},
		{
			description: "empty log",
			input:       &hierarchy.Input{},
			diagnostics: trace.Diagnostics{},
		},
	}

	for _, testCase := range testCases {
		forest := hierarchy.New().Build(testCase.input)
		assert.Equal(t, testCase.expect, forest.Roots, testCase.description)
		assert.Equal(t, testCase.diagnostics, forest.Diagnostics, testCase.description)
	}
}

func TestBuilder_Unterminated(t *testing.T) {
	input := &hierarchy.Input{
		Events: []trace.EventRecord{
			{Function: calcID, Kind: trace.Call, Depth: 0},
			{Function: incID, Kind: trace.Call, Depth: 1},
		},
		Buffers: map[trace.FunctionID]*trace.Invocations{
			incID: {Calls: 1, Args: [][]trace.RuntimeAssignment{{create("x", "2")}}, Lines: map[int][]*trace.Batch{11: {batch(0, create("y", "3"))}}},
		},
		Maps:    maps(t, incID, calcID),
		Failure: &trace.Failure{Type: "panic", Message: "boom", Frames: []trace.Location{{Function: calcID, Line: 41}, {Function: incID, Line: 12}}},
	}
	forest := hierarchy.New().Build(input)
	require.Len(t, forest.Roots, 1)
	calls := forest.Calls(incID)
	require.Len(t, calls, 1)
	assert.Equal(t, []*hierarchy.Node{leaf(11, "y := x + 1", "y", "3")}, calls[0].Children)
	symptom := forest.Symptom()
	require.NotNil(t, symptom)
	assert.Equal(t, "return y", symptom.Context)
	assert.Equal(t, "boom", symptom.Value)
}

func TestBuilder_Summary(t *testing.T) {
	var testCases = []struct {
		description string
		preview     int
		values      []string
		expect      string
	}{
		{description: "single", values: []string{"1"}, expect: "1"},
		{description: "within preview", values: []string{"1", "2", "3", "4"}, expect: "1, 2, 3, 4 (4 values)"},
		{description: "beyond preview", values: []string{"1", "2", "3", "4", "5"}, expect: "1, 2, 3, ..., 5 (5 values)"},
		{description: "custom preview", preview: 1, values: []string{"a", "b", "c"}, expect: "a, ..., c (3 values)"},
	}
	for _, testCase := range testCases {
		invocations := trace.NewInvocations()
		invocations.Calls = 1
		invocations.Args = [][]trace.RuntimeAssignment{{create("x", "0")}}
		for _, value := range testCase.values {
			invocations.Lines[11] = append(invocations.Lines[11], batch(0, create("y", value)))
		}
		input := &hierarchy.Input{
			Events:  []trace.EventRecord{{Function: incID, Kind: trace.Call}, {Function: incID, Kind: trace.Return}},
			Buffers: map[trace.FunctionID]*trace.Invocations{incID: invocations},
			Maps:    maps(t, incID),
		}
		forest := hierarchy.New(hierarchy.WithLoopPreview(testCase.preview)).Build(input)
		require.Len(t, forest.Roots, 1, testCase.description)
		require.Len(t, forest.Roots[0].Children, 1, testCase.description)
		assert.Equal(t, testCase.expect, forest.Roots[0].Children[0].Assignment.Value, testCase.description)
	}
}
