package forecasting

import (
	"fmt"

	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/internal/forecasting/engine"
	"pipeline_forecast_backend/platform/config"
)

// BuildTables overlays the optional tables file onto the default stage
// probabilities and decay tiers.
func BuildTables(file *config.ForecastTablesFile) (domain.Tables, error) {
	tables := domain.DefaultTables()
	if file == nil {
		return tables, nil
	}

	if len(file.StageProbabilities) > 0 {
		overrides := make(map[domain.Stage]float64, len(file.StageProbabilities))
		for raw, p := range file.StageProbabilities {
			stage := domain.ParseStage(raw)
			if !stage.IsKnown() {
				return domain.Tables{}, fmt.Errorf("unknown stage %q in stage probabilities", raw)
			}
			overrides[stage] = p
		}
		stages, err := tables.Stages.With(overrides)
		if err != nil {
			return domain.Tables{}, err
		}
		tables.Stages = stages
	}

	if len(file.DecayTiers) > 0 || file.DecayFallback != nil {
		tiers := tables.Decay.Tiers()
		if len(file.DecayTiers) > 0 {
			tiers = make([]domain.DecayTier, 0, len(file.DecayTiers))
			for _, t := range file.DecayTiers {
				tiers = append(tiers, domain.DecayTier{MaxAgeDays: t.MaxAgeDays, Multiplier: t.Multiplier})
			}
		}
		fallback := tables.Decay.Fallback()
		if file.DecayFallback != nil {
			fallback = *file.DecayFallback
		}
		decay, err := domain.NewTimeDecayTable(tiers, fallback)
		if err != nil {
			return domain.Tables{}, err
		}
		tables.Decay = decay
	}

	return tables, nil
}

// BuildHealthSettings applies the monthly target and any health overrides
// to the default health settings.
func BuildHealthSettings(cfg config.ForecastConfig) (engine.HealthSettings, error) {
	s := engine.DefaultHealthSettings()
	if target := cfg.GetForecastMonthlyTarget(); !target.IsZero() {
		if target.IsNegative() {
			return engine.HealthSettings{}, fmt.Errorf("monthly target must not be negative")
		}
		s.MonthlyTarget = target
	}

	file := cfg.GetForecastTables()
	if file == nil || file.Health == nil {
		return s, nil
	}
	h := file.Health

	setFloat(&s.Weights.Coverage, h.CoverageWeight)
	setFloat(&s.Weights.Distribution, h.DistributionWeight)
	setFloat(&s.Weights.Velocity, h.VelocityWeight)
	setFloat(&s.Weights.Freshness, h.FreshnessWeight)
	setFloat(&s.TargetCoverage, h.TargetCoverage)
	setInt(&s.StalledAfterDays, h.StalledAfterDays)
	setInt(&s.StalledListLimit, h.StalledListLimit)
	setInt(&s.FreshnessHorizonDays, h.FreshnessHorizon)
	setInt(&s.ActivityWindowDays, h.ActivityWindowDays)
	if m := h.IdealMix; m != nil {
		if m.Early < 0 || m.Mid < 0 || m.Late < 0 {
			return engine.HealthSettings{}, fmt.Errorf("ideal mix shares must not be negative")
		}
		if total := m.Early + m.Mid + m.Late; total < 0.999 || total > 1.001 {
			return engine.HealthSettings{}, fmt.Errorf("ideal mix must sum to 1, got %.3f", total)
		}
		s.IdealMix = engine.StageMix{Early: m.Early, Mid: m.Mid, Late: m.Late}
	}

	sum := s.Weights.Coverage + s.Weights.Distribution + s.Weights.Velocity + s.Weights.Freshness
	if sum < 0.999 || sum > 1.001 {
		return engine.HealthSettings{}, fmt.Errorf("health weights must sum to 1, got %.3f", sum)
	}
	if s.TargetCoverage <= 0 || s.StalledAfterDays < 0 || s.StalledListLimit < 0 || s.FreshnessHorizonDays <= 0 || s.ActivityWindowDays <= 0 {
		return engine.HealthSettings{}, fmt.Errorf("invalid health settings")
	}
	return s, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
