package transport

import "time"

// DateFormat is the layout of every date query parameter.
const DateFormat = "2006-01-02"

// ForecastRequest is the query for GET /forecast.
type ForecastRequest struct {
	TargetDate string `form:"targetDate" validate:"omitempty,datetime=2006-01-02"`
}

// DateRangeRequest is the query for range-scoped endpoints. Both bounds are
// optional; the endpoint picks its own default window.
type DateRangeRequest struct {
	Start string `form:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `form:"end" validate:"omitempty,datetime=2006-01-02"`
}

// PredictionsRequest is the query for GET /predictions.
type PredictionsRequest struct {
	DaysAhead *int `form:"daysAhead" validate:"omitempty,min=1,max=365"`
}

// DateRangeResponse echoes the window a metric was computed over.
type DateRangeResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// HistoricalResponse is the win/loss summary for a range.
type HistoricalResponse struct {
	Range             DateRangeResponse `json:"range"`
	WonCount          int               `json:"wonCount"`
	LostCount         int               `json:"lostCount"`
	TotalClosed       int               `json:"totalClosed"`
	WinRate           float64           `json:"winRate"`
	TotalRevenue      string            `json:"totalRevenue"`
	AvgDealSize       string            `json:"avgDealSize"`
	AvgSalesCycleDays float64           `json:"avgSalesCycleDays"`
}

// ConversionResponse holds snapshot-based funnel ratios.
type ConversionResponse struct {
	Counts                     map[string]int `json:"counts"`
	Total                      int            `json:"total"`
	ProspectingToQualification float64        `json:"prospectingToQualification"`
	QualificationToProposal    float64        `json:"qualificationToProposal"`
	ProposalToNegotiation      float64        `json:"proposalToNegotiation"`
	NegotiationToWon           float64        `json:"negotiationToWon"`
	Approximate                bool           `json:"approximate"`
}

// VelocityResponse is revenue closed per day over a range.
type VelocityResponse struct {
	Range              DateRangeResponse `json:"range"`
	TotalValue         string            `json:"totalValue"`
	Days               float64           `json:"days"`
	VelocityPerDay     string            `json:"velocityPerDay"`
	OpportunitiesMoved int               `json:"opportunitiesMoved"`
}

// ForecastFiguresResponse are the competing revenue projections.
type ForecastFiguresResponse struct {
	Conservative      string `json:"conservative"`
	MostLikely        string `json:"mostLikely"`
	Optimistic        string `json:"optimistic"`
	BestCase          string `json:"bestCase"`
	VelocityBased     string `json:"velocityBased"`
	TimeDecayAdjusted string `json:"timeDecayAdjusted"`
}

// ForecastResponse is the full ensemble forecast.
type ForecastResponse struct {
	TargetDate       time.Time               `json:"targetDate"`
	GeneratedAt      time.Time               `json:"generatedAt"`
	DaysUntilTarget  float64                 `json:"daysUntilTarget"`
	ClosedRevenue    string                  `json:"closedRevenue"`
	OpenPipeline     string                  `json:"openPipeline"`
	OpportunityCount int                     `json:"opportunityCount"`
	Forecasts        ForecastFiguresResponse `json:"forecasts"`
	Historical       HistoricalResponse      `json:"historical"`
	Velocity         VelocityResponse        `json:"velocity"`
}

// PredictionResponse is one scored deal.
type PredictionResponse struct {
	OpportunityID    string    `json:"opportunityId"`
	Name             string    `json:"name"`
	Stage            string    `json:"stage"`
	Amount           string    `json:"amount"`
	CloseDate        time.Time `json:"closeDate"`
	AccountID        string    `json:"accountId"`
	AccountName      string    `json:"accountName"`
	OwnerID          string    `json:"ownerId"`
	OwnerName        string    `json:"ownerName"`
	OwnerEmail       string    `json:"ownerEmail,omitempty"`
	AgeDays          float64   `json:"ageDays"`
	DaysToClose      float64   `json:"daysToClose"`
	BaseProbability  float64   `json:"baseProbability"`
	DecayFactor      float64   `json:"decayFactor"`
	FinalProbability float64   `json:"finalProbability"`
	ExpectedValue    string    `json:"expectedValue"`
}

// PredictionSummaryResponse aggregates the prediction list.
type PredictionSummaryResponse struct {
	DaysAhead       int    `json:"daysAhead"`
	TotalDeals      int    `json:"totalDeals"`
	TotalValue      string `json:"totalValue"`
	ExpectedRevenue string `json:"expectedRevenue"`
	LikelyCount     int    `json:"likelyCount"`
	AtRiskCount     int    `json:"atRiskCount"`
}

// PredictionsResponse is the ranked closing prediction list.
type PredictionsResponse struct {
	Predictions   []PredictionResponse      `json:"predictions"`
	Summary       PredictionSummaryResponse `json:"summary"`
	LikelyClosers []PredictionResponse      `json:"likelyClosers"`
	AtRisk        []PredictionResponse      `json:"atRisk"`
}

// RepPerformanceResponse is one rep's rollup.
type RepPerformanceResponse struct {
	UserID        string  `json:"userId"`
	Name          string  `json:"name"`
	Email         string  `json:"email,omitempty"`
	Revenue       string  `json:"revenue"`
	WonCount      int     `json:"wonCount"`
	LostCount     int     `json:"lostCount"`
	WinRate       float64 `json:"winRate"`
	AvgDealSize   string  `json:"avgDealSize"`
	OpenDeals     int     `json:"openDeals"`
	PipelineValue string  `json:"pipelineValue"`
}

// RepsResponse lists reps by revenue, highest first.
type RepsResponse struct {
	Range DateRangeResponse        `json:"range"`
	Reps  []RepPerformanceResponse `json:"reps"`
}

// HealthComponentsResponse are the four sub-scores.
type HealthComponentsResponse struct {
	Coverage          float64 `json:"coverage"`
	StageDistribution float64 `json:"stageDistribution"`
	Velocity          float64 `json:"velocity"`
	Freshness         float64 `json:"freshness"`
}

// StageMixResponse is the share of open deals per funnel segment.
type StageMixResponse struct {
	Early float64 `json:"early"`
	Mid   float64 `json:"mid"`
	Late  float64 `json:"late"`
}

// HealthMetricsResponse are the raw health measurements.
type HealthMetricsResponse struct {
	OpenCount      int              `json:"openCount"`
	TotalOpenValue string           `json:"totalOpenValue"`
	CoverageRatio  float64          `json:"coverageRatio"`
	StageMix       StageMixResponse `json:"stageMix"`
	RecentlyActive int              `json:"recentlyActive"`
	AvgAgeDays     float64          `json:"avgAgeDays"`
	StalledCount   int              `json:"stalledCount"`
}

// StalledDealResponse is an open deal without recent activity.
type StalledDealResponse struct {
	OpportunityID   string  `json:"opportunityId"`
	Name            string  `json:"name"`
	OwnerID         string  `json:"ownerId"`
	Stage           string  `json:"stage"`
	Amount          string  `json:"amount"`
	DaysSinceUpdate float64 `json:"daysSinceUpdate"`
}

// HealthResponse is the pipeline health score with its explanation.
type HealthResponse struct {
	Score           int                      `json:"score"`
	Status          string                   `json:"status"`
	Components      HealthComponentsResponse `json:"components"`
	Metrics         HealthMetricsResponse    `json:"metrics"`
	StalledDeals    []StalledDealResponse    `json:"stalledDeals"`
	Recommendations []string                 `json:"recommendations"`
}
