package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/viant/afs"
	"github.com/viant/faultline/trace"
)

// ErrMissingSource is returned when function source can not be located
var ErrMissingSource = errors.New("missing source")

// Provider locates function source
type Provider interface {
	Locate(ctx context.Context, id trace.FunctionID) (*Function, error)
}

// Locator finds function declarations in Go files using tree-sitter
type Locator struct {
	fs    afs.Service
	mux   sync.Mutex
	files map[string]*fileIndex
}

type fileIndex struct {
	functions map[string]*Function
	types     map[string]string
	err       error
}

// NewLocator creates a locator reading files with fs
func NewLocator(fs afs.Service) *Locator {
	if fs == nil {
		fs = afs.New()
	}
	return &Locator{fs: fs, files: map[string]*fileIndex{}}
}

// Locate returns function declaration source, or ErrMissingSource
func (l *Locator) Locate(ctx context.Context, id trace.FunctionID) (*Function, error) {
	if id.Kind() == trace.KindClosure {
		return nil, fmt.Errorf("%w: %v is a closure", ErrMissingSource, id)
	}
	index := l.index(ctx, id.File)
	if index.err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrMissingSource, id, index.err)
	}
	located, ok := index.functions[declarationKey(id.Receiver, id.Name)]
	if !ok {
		return nil, fmt.Errorf("%w: %v not declared in %v", ErrMissingSource, id.Qualified(), id.File)
	}
	return NewFunction(id, located.Start, located.Text, index.types[id.Receiver]), nil
}

func (l *Locator) index(ctx context.Context, URL string) *fileIndex {
	l.mux.Lock()
	defer l.mux.Unlock()
	if index, ok := l.files[URL]; ok {
		return index
	}
	index := &fileIndex{functions: map[string]*Function{}, types: map[string]string{}}
	l.files[URL] = index
	if URL == "" {
		index.err = errors.New("empty file")
		return index
	}
	content, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		index.err = err
		return index
	}
	index.err = index.build(ctx, content)
	return index
}

func (i *fileIndex) build(ctx context.Context, src []byte) error {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}
	root := tree.RootNode()
	for j := 0; j < int(root.NamedChildCount()); j++ {
		node := root.NamedChild(j)
		switch node.Type() {
		case "function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			i.add(declarationKey("", nameNode.Content(src)), node, src)
		case "method_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			i.add(declarationKey(receiverType(node, src), nameNode.Content(src)), node, src)
		case "type_declaration":
			text := node.Content(src)
			for k := 0; k < int(node.NamedChildCount()); k++ {
				spec := node.NamedChild(k)
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					i.types[nameNode.Content(src)] = text
				}
			}
		}
	}
	return nil
}

func (i *fileIndex) add(key string, node *sitter.Node, src []byte) {
	start := int(node.StartPoint().Row) + 1
	i.functions[key] = &Function{Start: start, Text: node.Content(src)}
}

// receiverType returns method receiver type name without pointer and type parameters
func receiverType(method *sitter.Node, src []byte) string {
	receiver := method.ChildByFieldName("receiver")
	if receiver == nil || receiver.NamedChildCount() == 0 {
		return ""
	}
	node := receiver.NamedChild(0).ChildByFieldName("type")
	for node != nil {
		switch node.Type() {
		case "pointer_type", "parenthesized_type":
			node = node.NamedChild(0)
		case "generic_type":
			node = node.ChildByFieldName("type")
		case "type_identifier":
			return node.Content(src)
		default:
			return node.Content(src)
		}
	}
	return ""
}

func declarationKey(receiver, name string) string {
	if receiver == "" {
		return name
	}
	return receiver + "." + name
}
