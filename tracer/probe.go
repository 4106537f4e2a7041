package tracer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/viant/faultline/trace"
)

const maxFrames = 64

// Enter emits CALL for the calling function with its arguments and returns the RETURN emitter.
// Typical use: defer tr.Enter(trace.V("x", x))()
func (t *Tracer) Enter(args ...trace.Var) func(results ...trace.Var) {
	if t.Tier() == Off {
		return func(results ...trace.Var) {}
	}
	location, ok := callerLocation(2)
	if !ok {
		return func(results ...trace.Var) {}
	}
	t.OnEvent(trace.Call, &Frame{Location: location, Bindings: args})
	return func(results ...trace.Var) {
		exit, ok := callerLocation(2)
		if !ok {
			exit = location
		}
		exit.Function = location.Function
		t.OnEvent(trace.Return, &Frame{Location: exit, Bindings: results})
	}
}

// Step emits LINE for the calling line with bindings visible at that point
func (t *Tracer) Step(vars ...trace.Var) {
	if t.Tier() != Detailed {
		return
	}
	location, ok := callerLocation(2)
	if !ok {
		return
	}
	t.OnEvent(trace.Line, &Frame{Location: location, Bindings: vars})
}

func callerLocation(skip int) (trace.Location, bool) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return trace.Location{}, false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return trace.Location{}, false
	}
	id := trace.ParseFunctionName(fn.Name())
	id.File = file
	return trace.Location{Function: id, Line: line}, true
}

// Frames returns the calling goroutine frames, outermost first
func Frames(skip int) []trace.Location {
	pcs := make([]uintptr, maxFrames)
	count := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:count])
	var result []trace.Location
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			id := trace.ParseFunctionName(frame.Function)
			id.File = frame.File
			result = append(result, trace.Location{Function: id, Line: frame.Line})
		}
		if !more {
			break
		}
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// Fail wraps err as a failure carrying the calling goroutine frames; an existing failure is returned as is
func Fail(err error) *trace.Failure {
	var failure *trace.Failure
	if errors.As(err, &failure) {
		return failure
	}
	if err == nil {
		err = errors.New("failure")
	}
	return &trace.Failure{Type: fmt.Sprintf("%T", err), Message: err.Error(), Frames: Frames(1)}
}
