package engine

import (
	"context"
	"testing"

	"pipeline_forecast_backend/internal/forecasting/domain"
)

func ownedBy(o domain.Opportunity, ownerID string) domain.Opportunity {
	o.OwnerID = ownerID
	return o
}

func TestRepPerformance(t *testing.T) {
	reader := &fakeReader{
		users: []domain.User{
			{ID: "u-carol", Name: "Carol"},
			{ID: "u-alice", Name: "Alice", Email: "alice@example.com"},
			{ID: "u-aaron", Name: "Aaron"},
			{ID: "u-bob", Name: "Bob"},
		},
		opps: []domain.Opportunity{
			ownedBy(opp("a1", domain.StageClosedWon, "5000", 40, 5), "u-alice"),
			ownedBy(opp("a2", domain.StageClosedWon, "3000", 40, 10), "u-alice"),
			ownedBy(opp("a3", domain.StageClosedLost, "1000", 40, 3), "u-alice"),
			ownedBy(opp("a4", domain.StageProposal, "20000", 10, 1), "u-alice"),
			ownedBy(opp("a5", domain.StageClosedWon, "100000", 90, 60), "u-alice"),
			ownedBy(opp("b1", domain.StageClosedWon, "9000", 40, 2), "u-bob"),
			ownedBy(opp("b2", domain.StageClosedLost, "500", 40, 4), "u-bob"),
			ownedBy(opp("b3", domain.StageClosedLost, "700", 40, 6), "u-bob"),
			ownedBy(opp("b4", domain.StageNegotiation, "4000", 10, 1), "u-bob"),
			ownedBy(opp("b5", domain.StageProspecting, "1000", 10, 1), "u-bob"),
		},
	}

	reps, err := newTestEngine(reader, WithRepConcurrency(2)).RepPerformance(context.Background(), domain.TrailingDays(testNow, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := []string{"Bob", "Alice", "Aaron", "Carol"}
	if len(reps) != len(order) {
		t.Fatalf("expected %d reps, got %d", len(order), len(reps))
	}
	for i, name := range order {
		if reps[i].Name != name {
			t.Fatalf("expected rep %d to be %s, got %s", i, name, reps[i].Name)
		}
	}

	bob, alice, aaron := reps[0], reps[1], reps[2]

	assertDecimal(t, "bob revenue", bob.Revenue, "9000")
	if bob.WonCount != 1 || bob.LostCount != 2 || bob.OpenDeals != 2 {
		t.Fatalf("unexpected bob counts: %+v", bob)
	}
	assertFloat(t, "bob win rate", bob.WinRate, 1.0/3.0)
	assertDecimal(t, "bob pipeline", bob.PipelineValue, "5000")

	assertDecimal(t, "alice revenue", alice.Revenue, "8000")
	assertDecimal(t, "alice avg deal", alice.AvgDealSize, "4000")
	if alice.WonCount != 2 || alice.LostCount != 1 || alice.OpenDeals != 1 || alice.Email != "alice@example.com" {
		t.Fatalf("unexpected alice rollup: %+v", alice)
	}
	assertDecimal(t, "alice pipeline", alice.PipelineValue, "20000")

	if aaron.WinRate != 0 || !aaron.AvgDealSize.IsZero() || aaron.OpenDeals != 0 {
		t.Fatalf("expected zeroed rollup for a rep without deals, got %+v", aaron)
	}
}

func TestRepPerformanceWithoutUsers(t *testing.T) {
	reps, err := newTestEngine(&fakeReader{}).RepPerformance(context.Background(), domain.TrailingDays(testNow, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reps == nil || len(reps) != 0 {
		t.Fatalf("expected an empty non-nil list, got %#v", reps)
	}
}
