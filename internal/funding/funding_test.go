package funding

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

func contribution(giftID string, amount string, status domain.ContributionStatus) domain.Contribution {
	return domain.Contribution{
		ID:     giftID + "-" + amount + "-" + string(status),
		GiftID: giftID,
		Amount: decimal.RequireFromString(amount),
		Status: status,
	}
}

func gift(id, cost string) domain.Gift {
	return domain.Gift{ID: id, Name: "Sofá", TotalCost: decimal.RequireFromString(cost)}
}

func TestSummarize_PartialFunding(t *testing.T) {
	g := gift("g1", "1000")
	set := []domain.Contribution{
		contribution("g1", "200", domain.StatusApproved),
		contribution("g1", "300", domain.StatusApproved),
		contribution("g1", "150", domain.StatusPending),
	}

	p := Summarize(g, set)
	if !p.TotalApproved.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected total 500, got %s", p.TotalApproved)
	}
	if p.CountApproved != 2 {
		t.Fatalf("expected 2 approved contributions, got %d", p.CountApproved)
	}
	if !p.Percentage.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50%%, got %s", p.Percentage)
	}
	if p.IsComplete {
		t.Fatal("expected gift to be incomplete")
	}
}

func TestSummarize_OverFundingIsClamped(t *testing.T) {
	g := gift("g1", "1000")
	set := []domain.Contribution{
		contribution("g1", "200", domain.StatusApproved),
		contribution("g1", "300", domain.StatusApproved),
		contribution("g1", "150", domain.StatusPending),
		contribution("g1", "600", domain.StatusApproved),
	}

	if got := TotalApproved(set, g.ID); !got.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected total 1100, got %s", got)
	}
	if got := Percentage(g, set); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected clamped 100%%, got %s", got)
	}
	if !IsComplete(g, set) {
		t.Fatal("expected gift to be complete")
	}
}

func TestTotalApproved_IgnoresOtherStatusesAndGifts(t *testing.T) {
	set := []domain.Contribution{
		contribution("g1", "120.50", domain.StatusApproved),
		contribution("g1", "999", domain.StatusRejected),
		contribution("g1", "999", domain.StatusPending),
		contribution("g2", "999", domain.StatusApproved),
	}

	if got := TotalApproved(set, "g1"); !got.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("expected 120.50, got %s", got)
	}
	if got := CountApproved(set, "g1"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestPercentage_ZeroCostIsZero(t *testing.T) {
	g := domain.Gift{ID: "g1"}
	set := []domain.Contribution{contribution("g1", "10", domain.StatusApproved)}

	if got := Percentage(g, set); !got.IsZero() {
		t.Fatalf("expected 0 for a gift without cost, got %s", got)
	}
	if IsComplete(g, set) {
		t.Fatal("expected gift without cost to never be complete")
	}
}

func TestPercentage_MonotonicWhileAddingApproved(t *testing.T) {
	g := gift("g1", "750")
	amounts := []string{"100", "0.01", "250", "399.99", "300", "5"}

	var set []domain.Contribution
	prev := decimal.Zero
	for _, amount := range amounts {
		set = append(set, contribution("g1", amount, domain.StatusApproved))
		got := Percentage(g, set)
		if got.LessThan(prev) {
			t.Fatalf("percentage decreased from %s to %s after adding %s", prev, got, amount)
		}
		if got.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("percentage %s exceeds 100", got)
		}
		prev = got
	}
}

func TestSummarizeAll_KeepsGiftOrder(t *testing.T) {
	gifts := []domain.Gift{gift("b", "10"), gift("a", "10")}
	set := []domain.Contribution{contribution("a", "10", domain.StatusApproved)}

	out := SummarizeAll(gifts, set)
	if len(out) != 2 || out[0].Gift.ID != "b" || out[1].Gift.ID != "a" {
		t.Fatalf("expected order [b a], got %+v", out)
	}
	if !out[1].IsComplete || out[0].IsComplete {
		t.Fatal("expected only gift a to be complete")
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("es-PE", "PEN")
	if got := f.Format(decimal.NewFromInt(500)); !strings.Contains(got, "500") {
		t.Fatalf("expected formatted amount to contain 500, got %q", got)
	}
	if got := f.Percent(decimal.RequireFromString("49.6")); got != "50%" {
		t.Fatalf("expected 50%%, got %q", got)
	}

	fallback := NewFormatter("not a locale!!", "???")
	if fallback.Format(decimal.NewFromInt(1)) == "" {
		t.Fatal("expected fallback formatter to render something")
	}
}
