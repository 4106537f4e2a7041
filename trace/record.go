package trace

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Record is a serialized trace session that can be replayed offline
type Record struct {
	SessionID string            `yaml:"sessionId"`
	Test      string            `yaml:"test"`
	Passed    bool              `yaml:"passed"`
	Scope     *Scope            `yaml:"scope,omitempty"`
	Events    []EventRecord     `yaml:"events"`
	Functions []*FunctionRecord `yaml:"functions,omitempty"`
	Failure   *Failure          `yaml:"failure,omitempty"`
}

// FunctionRecord holds per function source and capture buffers
type FunctionRecord struct {
	Function    FunctionID   `yaml:"function"`
	Source      *SourceText  `yaml:"source,omitempty"`
	Invocations *Invocations `yaml:"invocations,omitempty"`
}

// SourceText represents function source text
type SourceText struct {
	Start int    `yaml:"start"`           // first line of the declaration
	Text  string `yaml:"text"`            // declaration text
	Owner string `yaml:"owner,omitempty"` // receiver type declaration text for methods
}

// Marshal encodes record as YAML
func (r *Record) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %v: %w", r.SessionID, err)
	}
	return data, nil
}

// UnmarshalRecord decodes YAML record
func UnmarshalRecord(data []byte) (*Record, error) {
	record := &Record{}
	if err := yaml.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}
