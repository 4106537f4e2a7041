package trace

// Failure represents a failing test exception with its frame chain, outermost to innermost
type Failure struct {
	Type    string     `yaml:"type"`
	Message string     `yaml:"message"`
	Frames  []Location `yaml:"frames,omitempty"`
}

// Error implements error, so instrumented code can return a failure with frames
func (f *Failure) Error() string {
	if f.Type == "" {
		return f.Message
	}
	return f.Type + ": " + f.Message
}

// Innermost returns the deepest frame
func (f *Failure) Innermost() (Location, bool) {
	if f == nil || len(f.Frames) == 0 {
		return Location{}, false
	}
	return f.Frames[len(f.Frames)-1], true
}
