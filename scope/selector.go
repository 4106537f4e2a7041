package scope

import (
	"github.com/viant/faultline/trace"
)

// DefaultMaxDepth max call depth below the test root eligible for detailed tracing
const DefaultMaxDepth = 4

// Options represents selector options
type Options struct {
	MaxDepth int // relative to the test root, 0 means unlimited
	Limit    int // max number of entries before the root, 0 means unlimited
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	return &Options{MaxDepth: DefaultMaxDepth}
}

// Select returns functions entered beneath test in encounter order followed by the test root.
// Only CALL records count. A log without nested calls yields an empty scope.
func Select(events []trace.EventRecord, test string, options *Options) *trace.Scope {
	if options == nil {
		options = DefaultOptions()
	}
	result := trace.NewScope()
	rootIndex := findRoot(events, test)
	if rootIndex == -1 {
		return result
	}
	root := events[rootIndex]
	for _, event := range events[rootIndex+1:] {
		if event.Depth <= root.Depth {
			break
		}
		if event.Kind != trace.Call || event.Function == root.Function {
			continue
		}
		if options.MaxDepth > 0 && event.Depth-root.Depth > options.MaxDepth {
			continue
		}
		result.Add(event.Function)
	}
	if result.Len() == 0 {
		return result
	}
	if options.Limit > 0 {
		result.Truncate(options.Limit)
	}
	result.Add(root.Function)
	return result
}

func findRoot(events []trace.EventRecord, test string) int {
	for i, event := range events {
		if event.Kind != trace.Call {
			continue
		}
		if test == "" || event.Function.Name == test || event.Function.Qualified() == test {
			return i
		}
	}
	return -1
}
