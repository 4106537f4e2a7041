package project

import (
	"strings"

	"github.com/viant/faultline/trace"
	"golang.org/x/mod/modfile"
)

// Project represents application code boundary
type Project struct {
	Root    string          // project root folder
	Module  *modfile.Module // go.mod module, nil if not a go module
	Exclude []string        // excluded package paths, i.e. the tracing tool's own packages
}

// ModulePath returns module path or empty
func (p *Project) ModulePath() string {
	if p.Module == nil {
		return ""
	}
	return p.Module.Mod.Path
}

// Owns returns true if function belongs to application code: inside the project root,
// not vendored, not a standard library or dependency package and not excluded
func (p *Project) Owns(fn trace.FunctionID) bool {
	if fn.File != "" {
		file := localPath(fn.File)
		if root := localPath(p.Root); root != "" && !strings.HasPrefix(file, strings.TrimSuffix(root, "/")+"/") {
			return false
		}
		if strings.Contains(file, "/vendor/") || strings.Contains(file, "/pkg/mod/") {
			return false
		}
	}
	if fn.Package == "" {
		return true
	}
	for _, excluded := range p.Exclude {
		if fn.Package == excluded {
			return false
		}
	}
	if fn.Package == "main" {
		return true
	}
	if modulePath := p.ModulePath(); modulePath != "" {
		return fn.Package == modulePath || strings.HasPrefix(fn.Package, modulePath+"/")
	}
	return !IsStandard(fn.Package)
}

// IsStandard returns true for standard library package paths (first element without a dot)
func IsStandard(pkg string) bool {
	first := pkg
	if idx := strings.Index(pkg, "/"); idx != -1 {
		first = pkg[:idx]
	}
	return !strings.Contains(first, ".") && pkg != "main"
}

func localPath(URL string) string {
	if idx := strings.Index(URL, "://"); idx != -1 {
		URL = URL[idx+3:]
		if strings.HasPrefix(URL, "localhost/") {
			URL = URL[len("localhost"):]
		}
	}
	return URL
}
