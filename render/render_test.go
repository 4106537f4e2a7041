package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/viant/faultline/hierarchy"
	"github.com/viant/faultline/render"
	"github.com/viant/faultline/trace"
)

const incSource = `func inc(x int) int {
	y := x + 1
	return y
}`

func callNode(name, receiver string, args []trace.RuntimeAssignment, children ...*hierarchy.Node) *hierarchy.Node {
	return &hierarchy.Node{Call: &hierarchy.Call{Function: trace.FunctionID{Name: name, Receiver: receiver}, Args: args}, Children: children}
}

func leafNode(context, name, value string) *hierarchy.Node {
	return &hierarchy.Node{Assignment: &hierarchy.Assignment{Context: context, Name: name, Value: value}}
}

func failingForest() *hierarchy.Forest {
	return &hierarchy.Forest{Roots: []*hierarchy.Node{
		callNode("TestCalc", "", nil,
			callNode("inc", "", []trace.RuntimeAssignment{{Name: "x", Value: "2", Kind: trace.Create}},
				leafNode("y := x + 1", "y", "3"),
			),
			leafNode("got := inc(2)", "got", "3"),
			&hierarchy.Node{Assignment: &hierarchy.Assignment{Context: `t.Fatalf("expected 4, got %v", got)`, Name: "Fatal", Value: "expected 4, got 3", Symptom: true}},
		),
	}}
}

func TestLines(t *testing.T) {
	var testCases = []struct {
		description string
		forest      *hierarchy.Forest
		expect      []string
	}{
		{
			description: "failing test",
			forest:      failingForest(),
			expect: []string{
				"TestCalc()",
				"├── inc(x=2)",
				"│   └── y := x + 1  # y: 3",
				"├── got := inc(2)  # got: 3",
				`└── t.Fatalf("expected 4, got %v", got)  # Fatal: expected 4, got 3`,
			},
		},
		{
			description: "nested last child",
			forest: &hierarchy.Forest{Roots: []*hierarchy.Node{
				callNode("run", "", nil,
					callNode("Inc", "Counter", []trace.RuntimeAssignment{{Name: "c", Path: "Count", Value: "1", Kind: trace.Update}, {Name: "m", Path: "[k]", Value: "v", Kind: trace.Update}},
						callNode("add", "", nil, leafNode("n := a + b", "n", "3")),
					),
					leafNode("ok := true", "ok", "true"),
				),
			}},
			expect: []string{
				"run()",
				"├── Counter.Inc(c.Count=1, m[k]=v)",
				"│   └── add()",
				"│       └── n := a + b  # n: 3",
				"└── ok := true  # ok: true",
			},
		},
		{
			description: "multiple roots",
			forest: &hierarchy.Forest{Roots: []*hierarchy.Node{
				callNode("setup", "", nil),
				callNode("TestCalc", "", nil, leafNode("x := 1", "x", "1")),
			}},
			expect: []string{"setup()", "TestCalc()", "└── x := 1  # x: 1"},
		},
		{
			description: "empty forest",
			forest:      &hierarchy.Forest{},
		},
	}
	for _, testCase := range testCases {
		actual := render.Lines(testCase.forest)
		assert.Equal(t, testCase.expect, actual, testCase.description)
		assert.Equal(t, actual, render.Lines(testCase.forest), testCase.description)
	}
}

func TestNewDigest(t *testing.T) {
	forest := &hierarchy.Forest{Roots: []*hierarchy.Node{
		callNode("r", "", nil,
			leafNode("aaaa", "n", "1"),
			leafNode("aaaa", "n", "1"),
			leafNode("aaaa", "n", "1"),
		),
	}}
	sources := []string{"aaaa", "bbbb", "cccc"}

	var testCases = []struct {
		description   string
		budget        *render.Budget
		expectTrace   string
		expectSources []string
		expectElided  int
		expectEvicted int
	}{
		{
			description:   "within budget",
			budget:        render.DefaultBudget(),
			expectTrace:   "r()\n├── aaaa  # n: 1\n├── aaaa  # n: 1\n└── aaaa  # n: 1\n",
			expectSources: sources,
		},
		{
			description:   "both budgets exceeded",
			budget:        &render.Budget{SourceChars: 9, Tokens: 10, CharsPerToken: 4},
			expectTrace:   "... 3 earlier lines elided\n└── aaaa  # n: 1\n",
			expectSources: []string{"bbbb", "cccc"},
			expectElided:  3,
			expectEvicted: 1,
		},
		{
			description:   "disabled budgets",
			budget:        &render.Budget{},
			expectTrace:   "r()\n├── aaaa  # n: 1\n├── aaaa  # n: 1\n└── aaaa  # n: 1\n",
			expectSources: sources,
		},
	}
	for _, testCase := range testCases {
		digest := render.NewDigest(forest, sources, testCase.budget)
		assert.Equal(t, testCase.expectTrace, digest.Trace(), testCase.description)
		assert.Equal(t, testCase.expectSources, digest.Sources, testCase.description)
		assert.Equal(t, testCase.expectElided, digest.Elided, testCase.description)
		assert.Equal(t, testCase.expectEvicted, digest.Evicted, testCase.description)
	}
}

func TestDigest_Golden(t *testing.T) {
	forest := failingForest()
	digest := render.NewDigest(forest, []string{incSource}, nil)
	again := render.NewDigest(forest, []string{incSource}, nil)
	assert.Equal(t, digest.String(), again.String())

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "digest", []byte(digest.String()))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, render.EstimateTokens("", 4))
	assert.Equal(t, 2, render.EstimateTokens("abcdefghi", 4))
	assert.Equal(t, 2, render.EstimateTokens("abcdefghi", 0))
}

func TestStream(t *testing.T) {
	var testCases = []struct {
		description string
		sentinel    string
		expect      string
	}{
		{description: "default sentinel", expect: "the answer" + render.DefaultSentinel},
		{description: "custom sentinel", sentinel: "STOP", expect: "the answerSTOP"},
	}
	for _, testCase := range testCases {
		buffer := &bytes.Buffer{}
		err := render.Stream(buffer, strings.NewReader("the answer"), testCase.sentinel)
		assert.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, buffer.String(), testCase.description)
	}
}
