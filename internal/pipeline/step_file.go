package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leengari/cohort-sql/internal/domain/errors"
)

// StepOverride replaces parts of one built-in step; empty fields keep the built-in value
type StepOverride struct {
	Index    int    `yaml:"index"`
	Name     string `yaml:"name,omitempty"`
	Subtitle string `yaml:"subtitle,omitempty"`
	Text     string `yaml:"sql,omitempty"`
}

// StepFile is the YAML document read by LoadStepFile:
//
//	pipeline: drug
//	steps:
//	  - index: 7
//	    sql: |
//	      DELETE FROM temp_six WHERE dose_val_rx = '0';
//	      SELECT * FROM temp_six;
type StepFile struct {
	Pipeline string         `yaml:"pipeline,omitempty"`
	Steps    []StepOverride `yaml:"steps"`
}

// LoadStepFile reads a YAML step override file
func LoadStepFile(path string) (*StepFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read step file: %w", err)
	}
	var f StepFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse step file %s: %w", path, err)
	}
	return &f, nil
}

// WithOverrides returns a copy of p whose default steps carry the overrides.
// A file naming another pipeline is rejected.
func (p *Profile) WithOverrides(f *StepFile) (*Profile, error) {
	if f.Pipeline != "" && f.Pipeline != p.Name {
		return nil, fmt.Errorf("step file is for pipeline %q, not %q", f.Pipeline, p.Name)
	}

	steps := make([]StepDef, len(p.Steps))
	copy(steps, p.Steps)
	for _, o := range f.Steps {
		if o.Index < 0 || o.Index >= len(steps) {
			return nil, &errors.StepRangeError{Index: o.Index, Count: len(steps)}
		}
		if o.Name != "" {
			steps[o.Index].Name = o.Name
		}
		if o.Subtitle != "" {
			steps[o.Index].Subtitle = o.Subtitle
		}
		if o.Text != "" {
			steps[o.Index].Text = o.Text
		}
	}

	out := *p
	out.Steps = steps
	return &out, nil
}
