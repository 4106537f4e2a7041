package project

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"golang.org/x/mod/modfile"
)

const goModFile = "go.mod"

// Detector identifies the go module enclosing a location
type Detector struct {
	fs afs.Service
}

// NewDetector creates a detector
func NewDetector(fs afs.Service) *Detector {
	if fs == nil {
		fs = afs.New()
	}
	return &Detector{fs: fs}
}

// Detect searches up from location for go.mod, if none is found location itself becomes the project root
func (d *Detector) Detect(ctx context.Context, location string, exclude ...string) (*Project, error) {
	dir := location
	for {
		candidate := url.Join(dir, goModFile)
		ok, err := d.fs.Exists(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to check %v: %w", candidate, err)
		}
		if ok {
			content, err := d.fs.DownloadWithURL(ctx, candidate)
			if err != nil {
				return nil, fmt.Errorf("failed to read %v: %w", candidate, err)
			}
			mod, err := modfile.Parse(candidate, content, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %v: %w", candidate, err)
			}
			return &Project{Root: dir, Module: mod.Module, Exclude: exclude}, nil
		}
		parent := parentURL(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return &Project{Root: location, Exclude: exclude}, nil
}

// parentURL returns parent folder URL, the root returns itself
func parentURL(URL string) string {
	scheme := ""
	location := URL
	if idx := strings.Index(URL, "://"); idx != -1 {
		scheme = URL[:idx+3]
		location = URL[idx+3:]
	}
	host := ""
	if scheme != "" {
		if idx := strings.Index(location, "/"); idx != -1 {
			host = location[:idx]
			location = location[idx:]
		} else {
			return URL
		}
	}
	parent := path.Dir(strings.TrimSuffix(location, "/"))
	if parent == "." {
		parent = "/"
	}
	return scheme + host + parent
}
