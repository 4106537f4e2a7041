package hierarchy

import (
	"github.com/viant/faultline/trace"
)

// Call represents one function invocation
type Call struct {
	Function   trace.FunctionID          `yaml:"function"`
	Invocation int                       `yaml:"invocation"`
	Line       int                       `yaml:"line,omitempty"` // attributed call site line in the caller
	Args       []trace.RuntimeAssignment `yaml:"args,omitempty"`
	Opaque     bool                      `yaml:"opaque,omitempty"` // call site could not be attributed
	Missing    bool                      `yaml:"missing,omitempty"` // function source not available
}

// Assignment represents an attributed variable value, or the failure symptom
type Assignment struct {
	Line    int    `yaml:"line"`
	Context string `yaml:"context"` // trimmed source line
	Name    string `yaml:"name"`
	Value   string `yaml:"value"`
	Count   int    `yaml:"count,omitempty"` // number of captured values when more than one
	Symptom bool   `yaml:"symptom,omitempty"`
}

// Node represents a call node with ordered children, or an assignment leaf
type Node struct {
	Call       *Call       `yaml:"call,omitempty"`
	Assignment *Assignment `yaml:"assignment,omitempty"`
	Children   []*Node     `yaml:"children,omitempty"`
}

// IsLeaf returns true for assignment leaves
func (n *Node) IsLeaf() bool {
	return n.Assignment != nil
}

// Walk visits n and its descendants depth first, stops descending when fn returns false
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Forest represents built call hierarchy
type Forest struct {
	Roots       []*Node           `yaml:"roots"`
	Diagnostics trace.Diagnostics `yaml:"diagnostics,omitempty"`
}

// Calls returns call nodes of fn in invocation order
func (f *Forest) Calls(fn trace.FunctionID) []*Node {
	var result []*Node
	for _, root := range f.Roots {
		root.Walk(func(node *Node, depth int) bool {
			if node.Call != nil && node.Call.Function == fn {
				result = append(result, node)
			}
			return true
		})
	}
	return result
}

// Symptom returns the symptom leaf or nil
func (f *Forest) Symptom() *Assignment {
	if len(f.Roots) == 0 {
		return nil
	}
	last := f.Roots[len(f.Roots)-1]
	if last.IsLeaf() {
		if last.Assignment.Symptom {
			return last.Assignment
		}
		return nil
	}
	if count := len(last.Children); count > 0 && last.Children[count-1].IsLeaf() && last.Children[count-1].Assignment.Symptom {
		return last.Children[count-1].Assignment
	}
	return nil
}
