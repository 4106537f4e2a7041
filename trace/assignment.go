package trace

// AssignKind represents runtime assignment kind
type AssignKind string

const (
	Create AssignKind = "create"
	Update AssignKind = "update"
)

// ReturnName is the pseudo variable name used for return statements and returned values
const ReturnName = "return"

// RuntimeAssignment is an observed variable creation or mutation
type RuntimeAssignment struct {
	Name  string     `yaml:"name"`
	Value string     `yaml:"value"`
	Path  string     `yaml:"path,omitempty"` // path inside a structured value, i.e. "Inner.Count" or "[key]"
	Kind  AssignKind `yaml:"kind"`
}

// Target returns variable name joined with its structural path
func (a *RuntimeAssignment) Target() string {
	return JoinPath(a.Name, a.Path)
}

// StaticAssignment is an assignment found in function source
type StaticAssignment struct {
	Name string   `yaml:"name"`
	Deps []string `yaml:"deps,omitempty"`
	Line int      `yaml:"line"`
}

// JoinPath joins variable name with structural path
func JoinPath(name, path string) string {
	switch {
	case path == "":
		return name
	case path[0] == '[':
		return name + path
	default:
		return name + "." + path
	}
}

// Batch holds the deltas captured at one visit of a line by one invocation
type Batch struct {
	Invocation int                 `yaml:"invocation"`
	Deltas     []RuntimeAssignment `yaml:"deltas"`
}

// Invocations holds the capture buffers of a single function for one trace session
type Invocations struct {
	Calls int                   `yaml:"calls"`
	Args  [][]RuntimeAssignment `yaml:"args,omitempty"` // one entry per call, in call order
	Lines map[int][]*Batch      `yaml:"lines,omitempty"`
}

// NewInvocations creates invocation buffers
func NewInvocations() *Invocations {
	return &Invocations{Lines: map[int][]*Batch{}}
}

// Batches returns batches captured at line by the given invocation
func (i *Invocations) Batches(line, invocation int) []*Batch {
	var result []*Batch
	for _, batch := range i.Lines[line] {
		if batch.Invocation == invocation {
			result = append(result, batch)
		}
	}
	return result
}

// CallArgs returns argument deltas for the given invocation
func (i *Invocations) CallArgs(invocation int) []RuntimeAssignment {
	if invocation < 0 || invocation >= len(i.Args) {
		return nil
	}
	return i.Args[invocation]
}
