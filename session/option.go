package session

import (
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/faultline/project"
	"github.com/viant/faultline/source"
)

// Option represents session option
type Option func(s *Session)

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS sets file system used to read sources and go.mod
func WithFS(fs afs.Service) Option {
	return func(s *Session) {
		s.fs = fs
	}
}

// WithProject sets application code boundary, skipping detection
func WithProject(p *project.Project) Option {
	return func(s *Session) {
		s.project = p
	}
}

// WithProvider sets function source provider
func WithProvider(provider source.Provider) Option {
	return func(s *Session) {
		s.provider = provider
	}
}
