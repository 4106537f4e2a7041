package diff

import (
	"github.com/viant/faultline/trace"
)

const (
	// DefaultMaxDepth nested field comparison limit, changes below it are not reported
	DefaultMaxDepth = 2
	// DefaultMaxValueLen formatted value length limit
	DefaultMaxValueLen = 256
	// DeletedValue is reported for fields removed between snapshots
	DeletedValue = "<deleted>"
)

// Options represents differencer options
type Options struct {
	MaxDepth    int
	MaxValueLen int
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	return &Options{MaxDepth: DefaultMaxDepth, MaxValueLen: DefaultMaxValueLen}
}

func (o *Options) ensure() *Options {
	if o == nil {
		return DefaultOptions()
	}
	return o
}

// Deltas returns runtime assignments for bindings that are new or changed between prev and curr.
// A name absent from prev is always a create; changes nested deeper than options depth are not reported.
func Deltas(prev, curr Bindings, options *Options) []trace.RuntimeAssignment {
	options = options.ensure()
	var result []trace.RuntimeAssignment
	for _, binding := range curr {
		before := prev.Lookup(binding.Name)
		if before == nil {
			result = append(result, trace.RuntimeAssignment{Name: binding.Name, Value: binding.Value.Text, Kind: trace.Create})
			continue
		}
		var changes []change
		compare(before, binding.Value, "", 0, options.MaxDepth, &changes)
		for _, c := range changes {
			result = append(result, trace.RuntimeAssignment{Name: binding.Name, Value: c.value, Path: c.path, Kind: trace.Update})
		}
	}
	return result
}

type change struct {
	path  string
	value string
}

func compare(prev, curr *Value, path string, depth, maxDepth int, changes *[]change) {
	if depth > maxDepth {
		return
	}
	if prev.Type != curr.Type {
		*changes = append(*changes, change{path: path, value: curr.Text})
		return
	}
	if prev.Kind != Structured || curr.Kind != Structured {
		if prev.Text != curr.Text {
			*changes = append(*changes, change{path: path, value: curr.Text})
		}
		return
	}
	if prev.Stopped || curr.Stopped {
		return
	}
	before := make(map[string]*Field, len(prev.Fields))
	for _, field := range prev.Fields {
		before[field.Name] = field
	}
	seen := make(map[string]bool, len(curr.Fields))
	for _, field := range curr.Fields {
		seen[field.Name] = true
		fieldPath := joinFieldPath(path, field)
		previous, ok := before[field.Name]
		if !ok {
			*changes = append(*changes, change{path: fieldPath, value: field.Value.Text})
			continue
		}
		compare(previous.Value, field.Value, fieldPath, depth+1, maxDepth, changes)
	}
	for _, field := range prev.Fields {
		if !seen[field.Name] {
			*changes = append(*changes, change{path: joinFieldPath(path, field), value: DeletedValue})
		}
	}
}

func joinFieldPath(path string, field *Field) string {
	if field.Key {
		return path + "[" + field.Name + "]"
	}
	if path == "" {
		return field.Name
	}
	return path + "." + field.Name
}
