package diff

import (
	"reflect"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
)

// formatDepth bounds nesting of formatted values; self referencing maps and slices stop there
const formatDepth = 5

var printer = &spew.ConfigState{
	MaxDepth:                formatDepth,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// truncated is raised by boundedState once its limit is reached
type truncated struct{}

// boundedState is a fmt.State keeping at most limit bytes, a non positive limit keeps everything
type boundedState struct {
	data  []byte
	limit int
	full  bool
}

func (s *boundedState) Write(b []byte) (int, error) {
	if s.full {
		panic(truncated{})
	}
	if s.limit > 0 && len(s.data)+len(b) > s.limit {
		s.full = true
		cut := s.limit - len(s.data)
		for cut > 0 && !utf8.RuneStart(b[cut]) {
			cut--
		}
		s.data = append(s.data, b[:cut]...)
		panic(truncated{})
	}
	s.data = append(s.data, b...)
	return len(b), nil
}

func (s *boundedState) Width() (int, bool) { return 0, false }

func (s *boundedState) Precision() (int, bool) { return 0, false }

func (s *boundedState) Flag(int) bool { return false }

// format prints v like %v, formatting stops once MaxValueLen bytes are written
func (o *Options) format(v reflect.Value) (text string) {
	if !v.CanInterface() {
		return "<" + v.Type().String() + ">"
	}
	state := &boundedState{limit: o.MaxValueLen}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(truncated); !ok {
				panic(r)
			}
			text = string(state.data) + "..."
		}
	}()
	printer.NewFormatter(v.Interface()).Format(state, 'v')
	return string(state.data)
}
