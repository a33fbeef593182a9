package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ForecastTablesFile is the on-disk override for the forecasting constants.
// Every section is optional; omitted sections keep their defaults.
//
//	stageProbabilities:
//	  proposal: 0.55
//	decayTiers:
//	  - maxAgeDays: 30
//	    multiplier: 1
//	decayFallback: 0.25
//	health:
//	  stalledAfterDays: 21
//	  idealMix: {early: 0.5, mid: 0.25, late: 0.25}
type ForecastTablesFile struct {
	StageProbabilities map[string]float64 `yaml:"stageProbabilities"`
	DecayTiers         []DecayTierEntry   `yaml:"decayTiers"`
	DecayFallback      *float64           `yaml:"decayFallback"`
	Health             *HealthOverrides   `yaml:"health"`
}

// DecayTierEntry is one row of the time decay table.
type DecayTierEntry struct {
	MaxAgeDays int     `yaml:"maxAgeDays"`
	Multiplier float64 `yaml:"multiplier"`
}

// HealthOverrides replaces individual pipeline health settings.
type HealthOverrides struct {
	CoverageWeight     *float64  `yaml:"coverageWeight"`
	DistributionWeight *float64  `yaml:"distributionWeight"`
	VelocityWeight     *float64  `yaml:"velocityWeight"`
	FreshnessWeight    *float64  `yaml:"freshnessWeight"`
	TargetCoverage     *float64  `yaml:"targetCoverage"`
	StalledAfterDays   *int      `yaml:"stalledAfterDays"`
	StalledListLimit   *int      `yaml:"stalledListLimit"`
	FreshnessHorizon   *int      `yaml:"freshnessHorizonDays"`
	ActivityWindowDays *int      `yaml:"activityWindowDays"`
	IdealMix           *MixEntry `yaml:"idealMix"`
}

// MixEntry is the target share of open deals per stage band. Shares must sum to 1.
type MixEntry struct {
	Early float64 `yaml:"early"`
	Mid   float64 `yaml:"mid"`
	Late  float64 `yaml:"late"`
}

// LoadForecastTables reads and decodes a forecast tables file. Unknown keys are rejected.
func LoadForecastTables(path string) (*ForecastTablesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forecast tables %s: %w", path, err)
	}
	return ParseForecastTables(raw)
}

// ParseForecastTables decodes forecast table overrides from YAML.
func ParseForecastTables(raw []byte) (*ForecastTablesFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var out ForecastTablesFile
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode forecast tables: %w", err)
	}
	return &out, nil
}
