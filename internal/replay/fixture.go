package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/home-focus/go-core/internal/priority"
	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// #region fixture-types

// Fixture is the top-level structure of a replay fixture file.
type Fixture struct {
	Description string        `json:"description" yaml:"description"`
	Config      FixtureConfig `json:"config" yaml:"config"`
	Cases       []FixtureCase `json:"cases" yaml:"cases"`
}

// FixtureConfig pins the tuning knobs and the clock for a run.
type FixtureConfig struct {
	HorizonMonths      float64   `json:"horizon_months,omitempty" yaml:"horizon_months,omitempty"`
	PlanningLeadMonths *float64  `json:"planning_lead_months,omitempty" yaml:"planning_lead_months,omitempty"`
	DefaultConfidence  *float64  `json:"default_confidence,omitempty" yaml:"default_confidence,omitempty"`
	Now                time.Time `json:"now" yaml:"now"`
}

// FixtureCase is one upstream snapshot and what it should arbitrate to.
type FixtureCase struct {
	Name     string                    `json:"name" yaml:"name"`
	Home     signals.RawHomeScore      `json:"home" yaml:"home"`
	Records  []signals.RawSystemRecord `json:"records" yaml:"records"`
	Expected Expectation               `json:"expected" yaml:"expected"`
}

// Expectation lists the checked outcomes. Empty fields are not checked, except
// SourceSystem and Primary which use "-" to assert absence.
type Expectation struct {
	State        string `json:"state,omitempty" yaml:"state,omitempty"`
	Source       string `json:"source,omitempty" yaml:"source,omitempty"`
	SourceSystem string `json:"source_system,omitempty" yaml:"source_system,omitempty"`
	Primary      string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Explanation  string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
	Changed      *bool  `json:"changed,omitempty" yaml:"changed,omitempty"`
	Skipped      *int   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a fixture file. .yaml and .yml are decoded as YAML,
// anything else as JSON.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var f Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToReplayConfig converts a FixtureConfig to a ReplayConfig. Unset knobs keep
// their defaults; a zero Now keeps the wall clock.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.HorizonMonths > 0 {
		cfg.HorizonMonths = fc.HorizonMonths
	}
	if fc.PlanningLeadMonths != nil {
		cfg.Normalize.PlanningLeadMonths = *fc.PlanningLeadMonths
	}
	if fc.DefaultConfidence != nil {
		cfg.Normalize.DefaultConfidence = *fc.DefaultConfidence
	}
	if !fc.Now.IsZero() {
		now := fc.Now
		cfg.Normalize.Now = func() time.Time { return now }
	}
	return cfg
}

// ToCase converts a FixtureCase to a replay Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{
		Name:     fc.Name,
		Home:     fc.Home,
		Records:  fc.Records,
		Expected: fc.Expected,
	}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	cases := make([]Case, 0, len(f.Cases))
	for i := range f.Cases {
		cases = append(cases, f.Cases[i].ToCase())
	}
	return cases
}

// #endregion fixture-loader

// DefaultReplayConfig uses the production horizon and normalizer defaults.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		HorizonMonths: priority.DefaultHorizonMonths,
		Normalize:     signals.DefaultNormalizeConfig(),
	}
}
