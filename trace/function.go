package trace

import (
	"strings"
	"unicode"
)

// FunctionKind distinguishes free functions from methods
type FunctionKind string

const (
	KindFunc    FunctionKind = "func"
	KindMethod  FunctionKind = "method"
	KindClosure FunctionKind = "closure"
)

// FunctionID identifies a single function body.
// A method carries its receiver type name (without pointer or type parameters);
// a closure carries the enclosing function name followed by the closure suffix (e.g. "run.func1").
type FunctionID struct {
	File     string `yaml:"file"`
	Package  string `yaml:"package,omitempty"`
	Receiver string `yaml:"receiver,omitempty"`
	Name     string `yaml:"name"`
}

// Kind returns the function variant
func (f FunctionID) Kind() FunctionKind {
	if f.Receiver != "" {
		return KindMethod
	}
	if strings.Contains(f.Name, ".") {
		return KindClosure
	}
	return KindFunc
}

// Qualified returns receiver qualified name, i.e. "Counter.Inc" or "run"
func (f FunctionID) Qualified() string {
	if f.Receiver == "" {
		return f.Name
	}
	return f.Receiver + "." + f.Name
}

// Callee returns the name a call site uses to invoke the function
func (f FunctionID) Callee() string {
	return CalleeName(f.Name)
}

func (f FunctionID) String() string {
	return f.File + ":" + f.Qualified()
}

// CalleeName returns the last element of a dotted function name
func CalleeName(name string) string {
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[idx+1:]
	}
	return name
}

// ParseFunctionName splits a fully qualified runtime function name,
// e.g. "github.com/acme/app/calc.(*Counter).Inc", into its identity parts.
// The file is left empty; runtime names do not carry it.
func ParseFunctionName(fullName string) FunctionID {
	fullName = stripTypeArguments(fullName)
	slash := strings.LastIndex(fullName, "/")
	dot := strings.Index(fullName[slash+1:], ".")
	if dot == -1 {
		return FunctionID{Name: fullName}
	}
	dot += slash + 1
	result := FunctionID{Package: fullName[:dot]}
	rest := fullName[dot+1:]
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end == -1 {
			result.Name = rest
			return result
		}
		result.Receiver = strings.TrimPrefix(rest[1:end], "*")
		result.Name = strings.TrimPrefix(rest[end+1:], ".")
		return result
	}
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) == 2 && !isClosureSuffix(parts[1]) {
		result.Receiver = parts[0]
		result.Name = parts[1]
		return result
	}
	result.Name = rest
	return result
}

// isClosureSuffix reports whether name is a compiler generated closure name like "func1" or "func2.3"
func isClosureSuffix(name string) bool {
	if !strings.HasPrefix(name, "func") {
		return false
	}
	digits := name[len("func"):]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}

// stripTypeArguments removes instantiation brackets, e.g. "pkg.Map[...]" -> "pkg.Map"
func stripTypeArguments(name string) string {
	if !strings.Contains(name, "[") {
		return name
	}
	var builder strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
