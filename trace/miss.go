package trace

// Miss represents a recoverable, local loss of detail
type Miss string

const (
	// MissingSource function source is not available, its invocations have no assignment leaves
	MissingSource Miss = "missingSource"
	// AttributionMiss dynamic call could not be matched with a static call site
	AttributionMiss Miss = "attributionMiss"
	// MissingDelta static assignment has no runtime delta
	MissingDelta Miss = "missingDelta"
)

// Diagnostics counts misses by kind
type Diagnostics map[Miss]int

// Add increments miss counter
func (d Diagnostics) Add(miss Miss) {
	d[miss]++
}

// Merge adds all counters from other
func (d Diagnostics) Merge(other Diagnostics) {
	for k, v := range other {
		d[k] += v
	}
}
