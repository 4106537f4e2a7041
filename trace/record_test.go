package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/faultline/trace"
)

func TestRecord_Marshal(t *testing.T) {
	fn := trace.FunctionID{File: "/app/calc.go", Package: "calc", Receiver: "Counter", Name: "Inc"}
	record := &trace.Record{
		SessionID: "s-1",
		Test:      "TestInc",
		Scope:     trace.NewScope(fn),
		Events:    []trace.EventRecord{{Function: fn, Kind: trace.Call}, {Function: fn, Kind: trace.Return}},
		Functions: []*trace.FunctionRecord{{
			Function: fn,
			Source:   &trace.SourceText{Start: 3, Text: "func (c *Counter) Inc() {\n\tc.Count++\n}", Owner: "type Counter struct {\n\tCount int\n}"},
			Invocations: &trace.Invocations{Calls: 1, Lines: map[int][]*trace.Batch{
				4: {{Deltas: []trace.RuntimeAssignment{{Name: "c", Path: "Count", Value: "1", Kind: trace.Update}}}},
			}},
		}},
	}
	data, err := record.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: CALL")

	decoded, err := trace.UnmarshalRecord(data)
	require.NoError(t, err)
	assert.True(t, decoded.Scope.Contains(fn))
	assert.Equal(t, record.Events, decoded.Events)
	assert.Equal(t, record.Functions[0].Source, decoded.Functions[0].Source)
	assert.Equal(t, "c.Count", decoded.Functions[0].Invocations.Batches(4, 0)[0].Deltas[0].Target())

	_, err = trace.UnmarshalRecord([]byte("events: {"))
	assert.Error(t, err)
}
