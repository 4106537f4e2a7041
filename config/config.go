package config

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/faultline/diff"
	"github.com/viant/faultline/hierarchy"
	"github.com/viant/faultline/render"
	"github.com/viant/faultline/scope"
	"github.com/viant/faultline/tracer"
	"gopkg.in/yaml.v3"
)

// Config represents faultline settings
type Config struct {
	Tracer       Tracer  `yaml:"tracer"`
	Scope        Scope   `yaml:"scope"`
	Render       Render  `yaml:"render"`
	Project      Project `yaml:"project"`
	TracePassing bool    `yaml:"tracePassing"` // trace and report passing tests too
}

// Tracer represents event tracer settings
type Tracer struct {
	VisitCeiling int `yaml:"visitCeiling"`
	DiffDepth    int `yaml:"diffDepth"`
	MaxValueLen  int `yaml:"maxValueLen"`
}

// Scope represents scope selector settings
type Scope struct {
	MaxDepth int `yaml:"maxDepth"`
	Limit    int `yaml:"limit"`
}

// Render represents digest settings
type Render struct {
	render.Budget `yaml:",inline"`
	LoopPreview   int    `yaml:"loopPreview"`
	Sentinel      string `yaml:"sentinel"`
}

// Project represents application code boundary settings
type Project struct {
	Root    string   `yaml:"root"`    // defaults to the module enclosing the working directory
	Exclude []string `yaml:"exclude"` // excluded package paths
}

// DefaultConfig returns default config
func DefaultConfig() *Config {
	return &Config{
		Tracer: Tracer{
			VisitCeiling: tracer.DefaultVisitCeiling,
			DiffDepth:    diff.DefaultMaxDepth,
			MaxValueLen:  diff.DefaultMaxValueLen,
		},
		Scope: Scope{MaxDepth: scope.DefaultMaxDepth},
		Render: Render{
			Budget:      *render.DefaultBudget(),
			LoopPreview: hierarchy.DefaultLoopPreview,
			Sentinel:    render.DefaultSentinel,
		},
	}
}

// DiffOptions returns differencer options
func (c *Config) DiffOptions() *diff.Options {
	return &diff.Options{MaxDepth: c.Tracer.DiffDepth, MaxValueLen: c.Tracer.MaxValueLen}
}

// ScopeOptions returns scope selector options
func (c *Config) ScopeOptions() *scope.Options {
	return &scope.Options{MaxDepth: c.Scope.MaxDepth, Limit: c.Scope.Limit}
}

// Load loads YAML config from URL over the defaults
func Load(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return Parse(data)
}

// Parse decodes YAML config over the defaults
func Parse(data []byte) (*Config, error) {
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return ret, nil
}
