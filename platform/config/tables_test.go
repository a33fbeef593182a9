package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseForecastTables(t *testing.T) {
	raw := []byte(`
stageProbabilities:
  proposal: 0.55
decayTiers:
  - maxAgeDays: 45
    multiplier: 0.9
decayFallback: 0.2
health:
  stalledAfterDays: 21
  coverageWeight: 0.4
`)
	tables, err := ParseForecastTables(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.StageProbabilities["proposal"] != 0.55 {
		t.Fatalf("expected proposal override, got %v", tables.StageProbabilities)
	}
	if len(tables.DecayTiers) != 1 || tables.DecayTiers[0].MaxAgeDays != 45 {
		t.Fatalf("unexpected decay tiers: %+v", tables.DecayTiers)
	}
	if tables.DecayFallback == nil || *tables.DecayFallback != 0.2 {
		t.Fatalf("expected decay fallback 0.2")
	}
	if tables.Health == nil || *tables.Health.StalledAfterDays != 21 || *tables.Health.CoverageWeight != 0.4 {
		t.Fatalf("unexpected health overrides: %+v", tables.Health)
	}
	if tables.Health.TargetCoverage != nil {
		t.Fatalf("expected omitted health fields to stay nil")
	}
}

func TestParseForecastTablesEmpty(t *testing.T) {
	tables, err := ParseForecastTables(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.StageProbabilities != nil || tables.Health != nil {
		t.Fatalf("expected an empty override set, got %+v", tables)
	}
}

func TestParseForecastTablesRejectsUnknownKeys(t *testing.T) {
	if _, err := ParseForecastTables([]byte("stageWeights:\n  proposal: 0.5\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadForecastTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte("decayFallback: 0.3\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tables, err := LoadForecastTables(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.DecayFallback == nil || *tables.DecayFallback != 0.3 {
		t.Fatalf("expected fallback 0.3")
	}

	if _, err := LoadForecastTables(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseForecastTablesIdealMix(t *testing.T) {
	raw := []byte(`
health:
  activityWindowDays: 14
  idealMix:
    early: 0.5
    mid: 0.25
    late: 0.25
`)
	tables, err := ParseForecastTables(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.Health == nil || tables.Health.IdealMix == nil || tables.Health.IdealMix.Early != 0.5 {
		t.Fatalf("expected ideal mix, got %+v", tables.Health)
	}
	if tables.Health.ActivityWindowDays == nil || *tables.Health.ActivityWindowDays != 14 {
		t.Fatalf("expected activity window 14")
	}
}
