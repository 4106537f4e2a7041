package trace

// Var represents a named binding
type Var struct {
	Name  string
	Value interface{}
}

// V creates a binding
func V(name string, value interface{}) Var {
	return Var{Name: name, Value: value}
}

// Snapshot is an ordered set of bindings observed at one event
type Snapshot []Var
