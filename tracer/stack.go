package tracer

import (
	"github.com/viant/faultline/diff"
	"github.com/viant/faultline/trace"
)

// ShadowFrame mirrors one live invocation
type ShadowFrame struct {
	Function   trace.FunctionID
	Invocation int
	Line       int           // line of the last observed event
	Bindings   diff.Bindings // previous snapshot
}

// CallStack mirrors the live call stack of traced invocations
type CallStack struct {
	frames []*ShadowFrame
}

// Push enters a frame
func (s *CallStack) Push(frame *ShadowFrame) {
	s.frames = append(s.frames, frame)
}

// Pop exits the current frame
func (s *CallStack) Pop() *ShadowFrame {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// Top returns current frame or nil
func (s *CallStack) Top() *ShadowFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Reset drops all frames
func (s *CallStack) Reset() {
	s.frames = nil
}
