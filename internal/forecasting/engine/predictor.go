package engine

import (
	"context"
	"sort"
	"time"

	"pipeline_forecast_backend/internal/forecasting/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultDaysAhead is the prediction horizon used when none is given.
	DefaultDaysAhead = 30

	likelyCloserThreshold = 0.7
	atRiskMinAgeDays      = 45
	atRiskMaxProbability  = 0.5

	unknownAccountName = "Unknown account"
	unknownOwnerName   = "Unassigned"
)

// DealPrediction is one late-stage deal scored for its chance to close.
type DealPrediction struct {
	OpportunityID    string
	Name             string
	Stage            domain.Stage
	Amount           decimal.Decimal
	CloseDate        time.Time
	AccountID        string
	AccountName      string
	OwnerID          string
	OwnerName        string
	OwnerEmail       string
	AgeDays          float64
	DaysToClose      float64
	BaseProbability  float64
	DecayFactor      float64
	FinalProbability float64
	ExpectedValue    decimal.Decimal
}

// PredictionSummary aggregates the prediction list.
type PredictionSummary struct {
	DaysAhead       int
	TotalDeals      int
	TotalValue      decimal.Decimal
	ExpectedRevenue decimal.Decimal
	LikelyCount     int
	AtRiskCount     int
}

// ClosingPredictions is the ranked list plus the two derived sublists.
type ClosingPredictions struct {
	Predictions   []DealPrediction
	Summary       PredictionSummary
	LikelyClosers []DealPrediction
	AtRisk        []DealPrediction
}

// PredictClosings ranks proposal and negotiation deals expected to close in
// the next daysAhead days (DefaultDaysAhead when <= 0).
func (e *Engine) PredictClosings(ctx context.Context, daysAhead int) (ClosingPredictions, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultDaysAhead
	}

	now := e.now()
	horizon := domain.DateRange{Start: now, End: now.AddDate(0, 0, daysAhead)}

	var (
		opps     []domain.Opportunity
		accounts []domain.Account
		users    []domain.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		opps, err = e.opportunities(gctx, "predict_closings", domain.OpportunityFilter{
			Stages:      []domain.Stage{domain.StageProposal, domain.StageNegotiation},
			CloseWithin: &horizon,
		})
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = e.reader.ListAccounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = e.reader.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ClosingPredictions{}, err
	}

	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	owners := make(map[string]domain.User, len(users))
	for _, u := range users {
		owners[u.ID] = u
	}

	predictions := make([]DealPrediction, 0, len(opps))
	for _, o := range opps {
		predictions = append(predictions, e.predict(o, now, accountNames, owners))
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].FinalProbability != predictions[j].FinalProbability {
			return predictions[i].FinalProbability > predictions[j].FinalProbability
		}
		return predictions[i].CloseDate.Before(predictions[j].CloseDate)
	})

	result := ClosingPredictions{
		Predictions:   predictions,
		LikelyClosers: make([]DealPrediction, 0),
		AtRisk:        make([]DealPrediction, 0),
		Summary: PredictionSummary{
			DaysAhead:       daysAhead,
			TotalDeals:      len(predictions),
			TotalValue:      decimal.Zero,
			ExpectedRevenue: decimal.Zero,
		},
	}
	for _, p := range predictions {
		result.Summary.TotalValue = result.Summary.TotalValue.Add(p.Amount)
		result.Summary.ExpectedRevenue = result.Summary.ExpectedRevenue.Add(p.ExpectedValue)
		if p.FinalProbability >= likelyCloserThreshold {
			result.LikelyClosers = append(result.LikelyClosers, p)
		}
		if p.AgeDays > atRiskMinAgeDays && p.FinalProbability < atRiskMaxProbability {
			result.AtRisk = append(result.AtRisk, p)
		}
	}
	result.Summary.LikelyCount = len(result.LikelyClosers)
	result.Summary.AtRiskCount = len(result.AtRisk)

	return result, nil
}

func (e *Engine) predict(o domain.Opportunity, now time.Time, accountNames map[string]string, owners map[string]domain.User) DealPrediction {
	age := o.AgeDays(now)
	base := o.EffectiveProbability(e.tables.Stages)
	decay := e.tables.Decay.Factor(age)
	final := base * decay
	amount := o.AmountValue()

	accountName, ok := accountNames[o.AccountID]
	if !ok || accountName == "" {
		accountName = unknownAccountName
	}
	owner, ok := owners[o.OwnerID]
	if !ok {
		owner = domain.User{ID: o.OwnerID, Name: unknownOwnerName}
	}

	return DealPrediction{
		OpportunityID:    o.ID,
		Name:             o.Name,
		Stage:            o.Stage,
		Amount:           amount,
		CloseDate:        *o.CloseDate,
		AccountID:        o.AccountID,
		AccountName:      accountName,
		OwnerID:          o.OwnerID,
		OwnerName:        owner.Name,
		OwnerEmail:       owner.Email,
		AgeDays:          age,
		DaysToClose:      domain.DaysBetween(now, *o.CloseDate),
		BaseProbability:  base,
		DecayFactor:      decay,
		FinalProbability: final,
		ExpectedValue:    weight(weight(amount, base), decay),
	}
}
