package source

import (
	"strings"

	"github.com/viant/faultline/trace"
)

// Function represents located function source
type Function struct {
	ID    trace.FunctionID
	Start int    // declaration first line in file
	End   int    // declaration last line in file
	Text  string // declaration text
	Owner string // receiver type declaration for methods
	lines []string
}

// NewFunction creates a function from its declaration text starting at start line
func NewFunction(id trace.FunctionID, start int, text, owner string) *Function {
	ret := &Function{ID: id, Start: start, Text: text, Owner: owner}
	ret.lines = strings.Split(text, "\n")
	ret.End = start + len(ret.lines) - 1
	return ret
}

// Line returns trimmed source of absolute file line, or empty if out of span
func (f *Function) Line(line int) string {
	if f == nil || !f.Contains(line) {
		return ""
	}
	return strings.TrimSpace(f.lines[line-f.Start])
}

// Contains returns true if line is within function span
func (f *Function) Contains(line int) bool {
	return line >= f.Start && line <= f.End
}

// Source returns text used for digest, receiver type declaration goes first
func (f *Function) Source() string {
	if f.Owner == "" {
		return f.Text
	}
	return f.Owner + "\n\n" + f.Text
}

// SourceText returns serializable source
func (f *Function) SourceText() *trace.SourceText {
	return &trace.SourceText{Start: f.Start, Text: f.Text, Owner: f.Owner}
}
