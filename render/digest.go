package render

import (
	"strconv"
	"strings"

	"github.com/viant/faultline/hierarchy"
)

const (
	// DefaultSourceChars character budget of concatenated function sources
	DefaultSourceChars = 20000
	// DefaultTokens token budget of rendered hierarchy lines
	DefaultTokens = 6000
	// DefaultCharsPerToken token estimate ratio
	DefaultCharsPerToken = 4
)

// Budget represents digest size limits, a non positive limit disables it
type Budget struct {
	SourceChars   int `yaml:"sourceChars"`
	Tokens        int `yaml:"tokens"`
	CharsPerToken int `yaml:"charsPerToken"`
}

// DefaultBudget returns default budget
func DefaultBudget() *Budget {
	return &Budget{SourceChars: DefaultSourceChars, Tokens: DefaultTokens, CharsPerToken: DefaultCharsPerToken}
}

// Digest represents budgeted hierarchy and source text handed to a reasoning collaborator
type Digest struct {
	Lines   []string `yaml:"lines"`
	Sources []string `yaml:"sources,omitempty"`
	Elided  int      `yaml:"elided,omitempty"`  // hierarchy lines dropped from the head
	Evicted int      `yaml:"evicted,omitempty"` // sources dropped, oldest first
}

// NewDigest renders forest and applies both budgets; sources are ordered oldest first
func NewDigest(forest *hierarchy.Forest, sources []string, budget *Budget) *Digest {
	if budget == nil {
		budget = DefaultBudget()
	}
	ret := &Digest{}
	ret.Lines, ret.Elided = keepTail(Lines(forest), budget.Tokens, budget.CharsPerToken)
	ret.Sources, ret.Evicted = keepNewest(sources, budget.SourceChars)
	return ret
}

// EstimateTokens returns approximate token count of text
func EstimateTokens(text string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return len(text) / charsPerToken
}

// keepTail drops the oldest lines until the estimate fits, the tail is nearest to the failure
func keepTail(lines []string, tokens, charsPerToken int) ([]string, int) {
	if tokens <= 0 {
		return lines, 0
	}
	var builder strings.Builder
	for _, line := range lines {
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	text := builder.String()
	start := 0
	for start < len(lines) && EstimateTokens(text, charsPerToken) > tokens {
		text = text[len(lines[start])+1:]
		start++
	}
	return lines[start:], start
}

func keepNewest(sources []string, limit int) ([]string, int) {
	if limit <= 0 {
		return sources, 0
	}
	chars := 0
	for _, text := range sources {
		chars += len(text)
	}
	start := 0
	for start < len(sources) && chars > limit {
		chars -= len(sources[start])
		start++
	}
	return sources[start:], start
}

// Trace returns the hierarchy text, prefixed with an elision marker when lines were dropped
func (d *Digest) Trace() string {
	var builder strings.Builder
	if d.Elided > 0 {
		builder.WriteString("... " + strconv.Itoa(d.Elided) + " earlier lines elided\n")
	}
	for _, line := range d.Lines {
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	return builder.String()
}

// Source returns concatenated function sources
func (d *Digest) Source() string {
	return strings.Join(d.Sources, "\n\n")
}

// String returns the full digest text
func (d *Digest) String() string {
	var builder strings.Builder
	builder.WriteString("Call hierarchy:\n")
	builder.WriteString(d.Trace())
	if len(d.Sources) > 0 {
		builder.WriteString("\nSource:\n")
		builder.WriteString(d.Source())
		builder.WriteString("\n")
	}
	return builder.String()
}
