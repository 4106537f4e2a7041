package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/faultline/scope"
	"github.com/viant/faultline/trace"
)

func fn(name string) trace.FunctionID {
	return trace.FunctionID{File: "/app/job.go", Package: "job", Name: name}
}

func call(name string, depth int) trace.EventRecord {
	return trace.EventRecord{Function: fn(name), Kind: trace.Call, Depth: depth}
}

func ret(name string, depth int) trace.EventRecord {
	return trace.EventRecord{Function: fn(name), Kind: trace.Return, Depth: depth}
}

func TestSelect(t *testing.T) {
	var testCases = []struct {
		description string
		events      []trace.EventRecord
		options     *scope.Options
		expect      []trace.FunctionID
	}{
		{
			description: "nested calls in encounter order followed by test",
			events: []trace.EventRecord{
				call("TestJob", 0), call("a", 1), call("b", 2), ret("b", 2), ret("a", 1), ret("TestJob", 0),
			},
			expect: []trace.FunctionID{fn("a"), fn("b"), fn("TestJob")},
		},
		{
			description: "duplicates and return only entries are skipped",
			events: []trace.EventRecord{
				ret("stale", 3), call("TestJob", 0), call("a", 1), ret("a", 1), call("a", 1), call("c", 2), ret("c", 2), ret("a", 1), ret("TestJob", 0),
			},
			expect: []trace.FunctionID{fn("a"), fn("c"), fn("TestJob")},
		},
		{
			description: "max depth",
			events: []trace.EventRecord{
				call("TestJob", 0), call("a", 1), call("b", 2), call("c", 3), ret("c", 3), ret("b", 2), ret("a", 1), ret("TestJob", 0),
			},
			options: &scope.Options{MaxDepth: 2},
			expect:  []trace.FunctionID{fn("a"), fn("b"), fn("TestJob")},
		},
		{
			description: "limit keeps earliest entries and the root",
			events: []trace.EventRecord{
				call("TestJob", 0), call("a", 1), ret("a", 1), call("b", 1), ret("b", 1), call("c", 1), ret("c", 1), ret("TestJob", 0),
			},
			options: &scope.Options{Limit: 2},
			expect:  []trace.FunctionID{fn("a"), fn("b"), fn("TestJob")},
		},
		{
			description: "events after the test root returned are ignored",
			events: []trace.EventRecord{
				call("TestJob", 0), call("a", 1), ret("a", 1), ret("TestJob", 0), call("z", 0), ret("z", 0),
			},
			expect: []trace.FunctionID{fn("a"), fn("TestJob")},
		},
		{
			description: "test without nested calls",
			events:      []trace.EventRecord{call("TestJob", 0), ret("TestJob", 0)},
		},
		{
			description: "empty log",
		},
	}

	for _, testCase := range testCases {
		actual := scope.Select(testCase.events, "TestJob", testCase.options)
		assert.Equal(t, len(testCase.expect), actual.Len(), testCase.description)
		if len(testCase.expect) == 0 {
			continue
		}
		assert.Equal(t, testCase.expect, actual.Entries, testCase.description)
		for _, entry := range testCase.expect {
			assert.True(t, actual.Contains(entry), testCase.description)
		}
	}
}
