// Package funding computes gift funding progress from contribution snapshots.
// Every function is pure: it only reads the slices it is given.
package funding

import (
	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// TotalApproved sums the amounts of approved contributions for giftID.
func TotalApproved(contributions []domain.Contribution, giftID string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range contributions {
		if c.GiftID == giftID && c.Status == domain.StatusApproved {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// CountApproved counts approved contributions for giftID.
func CountApproved(contributions []domain.Contribution, giftID string) int {
	count := 0
	for _, c := range contributions {
		if c.GiftID == giftID && c.Status == domain.StatusApproved {
			count++
		}
	}
	return count
}

// Percentage returns the funded share of the gift's cost, clamped to 100.
// A gift without a positive cost is reported as 0.
func Percentage(gift domain.Gift, contributions []domain.Contribution) decimal.Decimal {
	return percentageOf(TotalApproved(contributions, gift.ID), gift.TotalCost)
}

// IsComplete reports whether the gift is fully funded.
func IsComplete(gift domain.Gift, contributions []domain.Contribution) bool {
	return Percentage(gift, contributions).GreaterThanOrEqual(hundred)
}

// Summarize aggregates one gift in a single pass.
func Summarize(gift domain.Gift, contributions []domain.Contribution) domain.GiftProgress {
	total := TotalApproved(contributions, gift.ID)
	pct := percentageOf(total, gift.TotalCost)
	return domain.GiftProgress{
		Gift:          gift,
		TotalApproved: total,
		CountApproved: CountApproved(contributions, gift.ID),
		Percentage:    pct,
		IsComplete:    pct.GreaterThanOrEqual(hundred),
	}
}

// SummarizeAll aggregates every gift, keeping the order of gifts.
func SummarizeAll(gifts []domain.Gift, contributions []domain.Contribution) []domain.GiftProgress {
	progress := make([]domain.GiftProgress, 0, len(gifts))
	for _, gift := range gifts {
		progress = append(progress, Summarize(gift, contributions))
	}
	return progress
}

func percentageOf(total, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	pct := total.Mul(hundred).Div(cost)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
