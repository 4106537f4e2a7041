package source

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"

	"github.com/viant/faultline/trace"
	"golang.org/x/tools/go/ast/inspector"
)

// Map is the static map of a single function body
type Map struct {
	Function    *Function
	Assignments map[int][]trace.StaticAssignment // line -> assignments
	Calls       map[string][]int                 // callee name -> ascending call site lines
	lines       []int
	byName      map[string][]int
}

// Lines returns ascending assignment lines
func (m *Map) Lines() []int {
	return m.lines
}

// AssignmentLines returns ascending lines where name is assigned
func (m *Map) AssignmentLines(name string) []int {
	return m.byName[name]
}

// CallSites returns a copy of call site queues
func (m *Map) CallSites() map[string][]int {
	result := make(map[string][]int, len(m.Calls))
	for name, lines := range m.Calls {
		result[name] = append([]int(nil), lines...)
	}
	return result
}

// Mapper builds static maps from function source; it never executes the source
type Mapper struct{}

// NewMapper creates a mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

const packagePrefix = "package p\n"

// Map parses function declaration text into assignment and call site maps
func (m *Mapper) Map(fn *Function) (*Map, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, fn.ID.File, packagePrefix+fn.Text, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", fn.ID.Qualified(), err)
	}
	builder := &mapBuilder{
		fset:   fset,
		offset: fn.Start - 2,
		result: &Map{Function: fn, Assignments: map[int][]trace.StaticAssignment{}, Calls: map[string][]int{}},
	}
	filter := []ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.FuncLit)(nil),
		(*ast.AssignStmt)(nil),
		(*ast.IncDecStmt)(nil),
		(*ast.DeclStmt)(nil),
		(*ast.ReturnStmt)(nil),
		(*ast.CallExpr)(nil),
	}
	inspector.New([]*ast.File{file}).Nodes(filter, func(n ast.Node, push bool) bool {
		if !push {
			return true
		}
		switch node := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.FuncDecl:
			builder.handleFuncDecl(node)
		case *ast.AssignStmt:
			builder.handleAssignment(node)
		case *ast.IncDecStmt:
			if ident, ok := node.X.(*ast.Ident); ok {
				builder.add(node.Pos(), ident.Name, []string{ident.Name})
			}
		case *ast.DeclStmt:
			builder.handleDecl(node)
		case *ast.ReturnStmt:
			var deps []string
			for _, expr := range node.Results {
				deps = appendIdents(deps, expr)
			}
			builder.add(node.Pos(), trace.ReturnName, deps)
		case *ast.CallExpr:
			if name := calleeName(node.Fun); name != "" {
				builder.addCall(node.Pos(), name)
			}
		}
		return true
	})
	builder.result.index()
	return builder.result, nil
}

type mapBuilder struct {
	fset   *token.FileSet
	offset int
	result *Map
}

func (b *mapBuilder) line(pos token.Pos) int {
	return b.fset.Position(pos).Line + b.offset
}

func (b *mapBuilder) add(pos token.Pos, name string, deps []string) {
	line := b.line(pos)
	b.result.Assignments[line] = append(b.result.Assignments[line], trace.StaticAssignment{Name: name, Deps: deps, Line: line})
}

func (b *mapBuilder) addCall(pos token.Pos, name string) {
	line := b.line(pos)
	lines := b.result.Calls[name]
	if len(lines) > 0 && lines[len(lines)-1] == line {
		return
	}
	b.result.Calls[name] = append(lines, line)
}

func (b *mapBuilder) handleFuncDecl(node *ast.FuncDecl) {
	if node.Recv != nil {
		b.addFields(node.Recv)
	}
	b.addFields(node.Type.Params)
}

func (b *mapBuilder) addFields(fields *ast.FieldList) {
	if fields == nil {
		return
	}
	for _, field := range fields.List {
		for _, name := range field.Names {
			if name.Name == "_" {
				continue
			}
			b.add(name.Pos(), name.Name, nil)
		}
	}
}

// handleAssignment records identifier targets only, selector and index targets are skipped
func (b *mapBuilder) handleAssignment(node *ast.AssignStmt) {
	augmented := node.Tok != token.ASSIGN && node.Tok != token.DEFINE
	for i, lhs := range node.Lhs {
		ident, ok := lhs.(*ast.Ident)
		if !ok || ident.Name == "_" {
			continue
		}
		var deps []string
		if augmented {
			deps = append(deps, ident.Name)
		}
		if len(node.Lhs) == len(node.Rhs) {
			deps = appendIdents(deps, node.Rhs[i])
		} else {
			for _, rhs := range node.Rhs {
				deps = appendIdents(deps, rhs)
			}
		}
		b.add(node.Pos(), ident.Name, deps)
	}
}

func (b *mapBuilder) handleDecl(node *ast.DeclStmt) {
	genDecl, ok := node.Decl.(*ast.GenDecl)
	if !ok || genDecl.Tok != token.VAR {
		return
	}
	for _, spec := range genDecl.Specs {
		valueSpec, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range valueSpec.Names {
			if name.Name == "_" {
				continue
			}
			var deps []string
			if len(valueSpec.Names) == len(valueSpec.Values) {
				deps = appendIdents(deps, valueSpec.Values[i])
			} else {
				for _, value := range valueSpec.Values {
					deps = appendIdents(deps, value)
				}
			}
			b.add(name.Pos(), name.Name, deps)
		}
	}
}

func (m *Map) index() {
	m.byName = map[string][]int{}
	for line, assignments := range m.Assignments {
		m.lines = append(m.lines, line)
		for _, assignment := range assignments {
			m.byName[assignment.Name] = append(m.byName[assignment.Name], line)
		}
	}
	sort.Ints(m.lines)
	for _, lines := range m.byName {
		sort.Ints(lines)
	}
	for _, lines := range m.Calls {
		sort.Ints(lines)
	}
}

// calleeName returns identifier or selector name of a call target
func calleeName(fun ast.Expr) string {
	switch actual := fun.(type) {
	case *ast.Ident:
		return actual.Name
	case *ast.SelectorExpr:
		return actual.Sel.Name
	case *ast.IndexExpr:
		return calleeName(actual.X)
	case *ast.IndexListExpr:
		return calleeName(actual.X)
	case *ast.ParenExpr:
		return calleeName(actual.X)
	}
	return ""
}

var predeclared = map[string]bool{"nil": true, "true": true, "false": true, "iota": true, "_": true}

// appendIdents appends variable identifiers referenced by expr, skipping selector names, called function names and struct literal keys
func appendIdents(deps []string, expr ast.Expr) []string {
	ast.Inspect(expr, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.CallExpr:
			if selector, ok := node.Fun.(*ast.SelectorExpr); ok {
				deps = appendIdents(deps, selector.X)
			}
			for _, arg := range node.Args {
				deps = appendIdents(deps, arg)
			}
			return false
		case *ast.SelectorExpr:
			deps = appendIdents(deps, node.X)
			return false
		case *ast.KeyValueExpr:
			if _, ok := node.Key.(*ast.Ident); !ok {
				deps = appendIdents(deps, node.Key)
			}
			deps = appendIdents(deps, node.Value)
			return false
		case *ast.Ident:
			if predeclared[node.Name] {
				return false
			}
			for _, dep := range deps {
				if dep == node.Name {
					return false
				}
			}
			deps = append(deps, node.Name)
		}
		return true
	})
	return deps
}
