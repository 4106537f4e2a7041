package trace

// Scope is an ordered, duplicate-free set of functions eligible for detailed tracing
type Scope struct {
	Entries []FunctionID `yaml:"entries"`
	index   map[FunctionID]bool
}

// NewScope creates a scope
func NewScope(entries ...FunctionID) *Scope {
	ret := &Scope{}
	for _, entry := range entries {
		ret.Add(entry)
	}
	return ret
}

// Add appends entry unless already present, returns true if added
func (s *Scope) Add(entry FunctionID) bool {
	s.ensureIndex()
	if s.index[entry] {
		return false
	}
	s.index[entry] = true
	s.Entries = append(s.Entries, entry)
	return true
}

// Contains returns true if scope includes fn
func (s *Scope) Contains(fn FunctionID) bool {
	if s == nil {
		return false
	}
	s.ensureIndex()
	return s.index[fn]
}

// Len returns scope size
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Truncate keeps the first n entries
func (s *Scope) Truncate(n int) {
	if n < 0 || n >= len(s.Entries) {
		return
	}
	s.Entries = s.Entries[:n]
	s.index = nil
}

func (s *Scope) ensureIndex() {
	if s.index != nil {
		return
	}
	s.index = make(map[FunctionID]bool, len(s.Entries))
	for _, entry := range s.Entries {
		s.index[entry] = true
	}
}
