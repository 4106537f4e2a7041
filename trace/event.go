package trace

// EventKind represents an execution event kind
type EventKind string

const (
	Call   EventKind = "CALL"
	Line   EventKind = "LINE"
	Return EventKind = "RETURN"
)

// Location represents a source point
type Location struct {
	Function FunctionID `yaml:"function"`
	Line     int        `yaml:"line"`
}

// File returns location file
func (l Location) File() string {
	return l.Function.File
}

// EventRecord is a single entry of the append-only call log.
// CALL and the matching RETURN carry the same depth: the number of frames open before the call.
type EventRecord struct {
	Function FunctionID `yaml:"function"`
	Kind     EventKind  `yaml:"kind"`
	Depth    int        `yaml:"depth"`
}
