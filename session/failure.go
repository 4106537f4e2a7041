package session

import (
	"errors"
	"fmt"

	"github.com/viant/faultline/trace"
	"github.com/viant/faultline/tracer"
)

// goexitType is the failure type of a body leaving through runtime.Goexit, i.e. t.FailNow
const goexitType = "goexit"

// execute runs body, a panic is recovered into a failure with the panicking goroutine frames.
// A body calling runtime.Goexit is recorded as a failure before the goroutine unwinds.
func (s *Session) execute(body Body) (failure *trace.Failure) {
	returned := false
	defer func() {
		r := recover()
		switch {
		case r != nil:
			failure = &trace.Failure{Type: "panic", Message: fmt.Sprint(r), Frames: s.appFrames(tracer.Frames(0))}
			if err, ok := r.(error); ok {
				failure.Type = fmt.Sprintf("%T", err)
				failure.Message = err.Error()
			}
		case !returned:
			failure = &trace.Failure{Type: goexitType, Message: "test body exited without returning", Frames: s.appFrames(tracer.Frames(0))}
			s.onFailure(failure)
		}
	}()
	err := body(s.tracer)
	returned = true
	if err != nil {
		return s.failureOf(err)
	}
	return nil
}

// failureOf converts an error into a failure, frames are kept for application code only
func (s *Session) failureOf(err error) *trace.Failure {
	var failure *trace.Failure
	if errors.As(err, &failure) {
		return &trace.Failure{Type: failure.Type, Message: failure.Message, Frames: s.appFrames(failure.Frames)}
	}
	return &trace.Failure{Type: "error", Message: err.Error()}
}

func (s *Session) appFrames(frames []trace.Location) []trace.Location {
	var result []trace.Location
	for _, frame := range frames {
		if s.project.Owns(frame.Function) {
			result = append(result, frame)
		}
	}
	return result
}
