package diff

import (
	"reflect"
	"sort"

	"github.com/viant/faultline/trace"
)

// Kind represents captured value variant
type Kind int

const (
	// Primitive values are compared by equality
	Primitive Kind = iota
	// Structured values expose nested named fields
	Structured
	// Opaque values (funcs, channels, unsafe pointers) are compared by their formatted identity
	Opaque
)

// Value is a detached, depth bounded copy of a runtime value.
// Capturing detaches snapshots from later in-place mutation of the traced program state.
type Value struct {
	Kind    Kind
	Type    string
	Text    string
	Fields  []*Field
	Stopped bool // structured value beyond comparison depth, fields were not captured
}

// Field represents a named nested value
type Field struct {
	Name  string
	Key   bool // map key, rendered as [name]
	Value *Value
}

// Binding represents a captured variable
type Binding struct {
	Name  string
	Value *Value
}

// Bindings is a captured snapshot
type Bindings []*Binding

// Lookup returns captured value by name
func (b Bindings) Lookup(name string) *Value {
	for _, binding := range b {
		if binding.Name == name {
			return binding.Value
		}
	}
	return nil
}

// Capture detaches snapshot values up to options depth
func Capture(snapshot trace.Snapshot, options *Options) Bindings {
	options = options.ensure()
	result := make(Bindings, 0, len(snapshot))
	for _, v := range snapshot {
		result = append(result, &Binding{Name: v.Name, Value: capture(reflect.ValueOf(v.Value), 0, options)})
	}
	return result
}

func capture(v reflect.Value, depth int, options *Options) *Value {
	if !v.IsValid() {
		return &Value{Kind: Primitive, Type: "nil", Text: "<nil>"}
	}
	v = readable(v)
	typeName := v.Type().String()
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return &Value{Kind: Primitive, Type: typeName, Text: "<nil>"}
		}
		return capture(v.Elem(), depth, options)
	case reflect.Ptr:
		if v.IsNil() {
			return &Value{Kind: Primitive, Type: typeName, Text: "<nil>"}
		}
		elem := v.Elem()
		if elem.Kind() == reflect.Struct || elem.Kind() == reflect.Map {
			ret := capture(elem, depth, options)
			ret.Type = typeName
			return ret
		}
		return &Value{Kind: Primitive, Type: typeName, Text: options.format(elem)}
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return &Value{Kind: Opaque, Type: typeName, Text: options.format(v)}
	case reflect.Struct:
		if !v.CanAddr() && v.CanInterface() {
			addressable := reflect.New(v.Type()).Elem()
			addressable.Set(v)
			v = addressable
		}
		ret := &Value{Kind: Structured, Type: typeName, Text: options.format(v)}
		if depth >= options.MaxDepth+1 {
			ret.Stopped = true
			return ret
		}
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			ret.Fields = append(ret.Fields, &Field{Name: field.Name, Value: capture(v.Field(i), depth+1, options)})
		}
		return ret
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return &Value{Kind: Primitive, Type: typeName, Text: options.format(v)}
		}
		ret := &Value{Kind: Structured, Type: typeName, Text: options.format(v)}
		if depth >= options.MaxDepth+1 {
			ret.Stopped = true
			return ret
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, key := range keys {
			ret.Fields = append(ret.Fields, &Field{Name: key.String(), Key: true, Value: capture(v.MapIndex(key), depth+1, options)})
		}
		return ret
	}
	return &Value{Kind: Primitive, Type: typeName, Text: options.format(v)}
}

// readable returns v usable with Interface, an unexported field is read through its address
func readable(v reflect.Value) reflect.Value {
	if v.CanInterface() || !v.CanAddr() {
		return v
	}
	return reflect.NewAt(v.Type(), v.Addr().UnsafePointer()).Elem()
}
