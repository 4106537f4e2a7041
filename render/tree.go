package render

import (
	"strings"

	"github.com/viant/faultline/hierarchy"
)

const (
	tee    = "├── "
	corner = "└── "
	pipe   = "│   "
	blank  = "    "
)

// Lines flattens forest into branch prefixed lines, roots are not prefixed
func Lines(forest *hierarchy.Forest) []string {
	if forest == nil {
		return nil
	}
	var result []string
	for _, root := range forest.Roots {
		result = append(result, Line(root))
		appendChildren(&result, root.Children, "")
	}
	return result
}

func appendChildren(result *[]string, children []*hierarchy.Node, prefix string) {
	for i, child := range children {
		isLast := i == len(children)-1
		branch, childPrefix := tee, prefix+pipe
		if isLast {
			branch, childPrefix = corner, prefix+blank
		}
		*result = append(*result, prefix+branch+Line(child))
		appendChildren(result, child.Children, childPrefix)
	}
}

// Line renders a single node without prefix: "name(arg=value)" for calls, "context  # name: value" for leaves
func Line(node *hierarchy.Node) string {
	if node.Assignment != nil {
		leaf := node.Assignment
		return leaf.Context + "  # " + leaf.Name + ": " + leaf.Value
	}
	if node.Call == nil {
		return ""
	}
	args := make([]string, 0, len(node.Call.Args))
	for i := range node.Call.Args {
		arg := &node.Call.Args[i]
		args = append(args, arg.Target()+"="+arg.Value)
	}
	return node.Call.Function.Qualified() + "(" + strings.Join(args, ", ") + ")"
}
