package workflow

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StageType is the role of a stage in a linear workflow.
type StageType string

const (
	StageStart    StageType = "start"
	StageActivity StageType = "activity"
	StageEnd      StageType = "end"
)

// ErrInvalidTemplate is wrapped by every Validate and Parse failure.
var ErrInvalidTemplate = errors.New("invalid workflow template")

// Variable is a declared template input.
type Variable struct {
	Name        string `yaml:"name"                  json:"name"`
	Type        string `yaml:"type,omitempty"        json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty"     json:"default,omitempty"`
	Required    bool   `yaml:"required,omitempty"    json:"required,omitempty"`
}

// Stage is one node of the workflow graph.
type Stage struct {
	ID       string         `yaml:"id"                 json:"id"`
	Type     StageType      `yaml:"type"               json:"type"`
	Name     string         `yaml:"name,omitempty"     json:"name,omitempty"`
	Activity string         `yaml:"activity,omitempty" json:"activity,omitempty"`
	Inputs   map[string]any `yaml:"inputs,omitempty"   json:"inputs,omitempty"`
}

// Template is a rendered workflow description.
type Template struct {
	Name        string     `yaml:"name"                  json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string     `yaml:"version,omitempty"     json:"version,omitempty"`
	Variables   []Variable `yaml:"variables,omitempty"   json:"variables,omitempty"`
	Stages      []Stage    `yaml:"stages"                json:"stages"`
}

// Parse decodes a rendered template (YAML or JSON) and validates it.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the linear shape: a start stage, zero or more activities, an end stage.
// Stage IDs must be non-empty and unique.
func (t *Template) Validate() error {
	if len(t.Stages) < 2 {
		return fmt.Errorf("%w: need at least a start and an end stage, got %d stages", ErrInvalidTemplate, len(t.Stages))
	}
	last := len(t.Stages) - 1
	seen := make(map[string]struct{}, len(t.Stages))
	for i, s := range t.Stages {
		if s.ID == "" {
			return fmt.Errorf("%w: stage %d has no id", ErrInvalidTemplate, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate stage id %q", ErrInvalidTemplate, s.ID)
		}
		seen[s.ID] = struct{}{}

		want := StageActivity
		switch i {
		case 0:
			want = StageStart
		case last:
			want = StageEnd
		}
		if s.Type != want {
			return fmt.Errorf("%w: stage %q at position %d must be %q, got %q", ErrInvalidTemplate, s.ID, i, want, s.Type)
		}
		if s.Type == StageActivity && s.Activity == "" {
			return fmt.Errorf("%w: activity stage %q names no activity", ErrInvalidTemplate, s.ID)
		}
	}
	for i, v := range t.Variables {
		if v.Name == "" {
			return fmt.Errorf("%w: variable %d has no name", ErrInvalidTemplate, i)
		}
	}
	return nil
}

// Activities returns the activity stages in execution order.
func (t *Template) Activities() []Stage {
	if len(t.Stages) < 2 {
		return nil
	}
	return t.Stages[1 : len(t.Stages)-1]
}
