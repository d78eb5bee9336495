package api

import (
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/funding"
)

// catalogGiftView is a gift as listed in the catalog, without funding figures.
type catalogGiftView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ImageURL         string    `json:"image_url"`
	TotalCost        string    `json:"total_cost"`
	TotalCostDisplay string    `json:"total_cost_display"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// giftView is a gift with its funding progress, ready for display.
type giftView struct {
	catalogGiftView
	TotalApproved        string `json:"total_approved"`
	TotalApprovedDisplay string `json:"total_approved_display"`
	CountApproved        int    `json:"count_approved"`
	Percentage           string `json:"percentage"`
	PercentageDisplay    string `json:"percentage_display"`
	IsComplete           bool   `json:"is_complete"`
}

// contributionView renders amounts as fixed two-decimal strings.
type contributionView struct {
	ID            string    `json:"id"`
	GiftID        string    `json:"gift_id"`
	Name          string    `json:"name"`
	Amount        string    `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	PaymentMethod string    `json:"payment_method"`
	ProofImageURL string    `json:"proof_image_url"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type presenter struct {
	formatter   *funding.Formatter
	placeholder string
}

func (p presenter) catalogGift(g domain.Gift) catalogGiftView {
	image := g.ImageURL
	if image == "" {
		image = p.placeholder
	}
	return catalogGiftView{
		ID:               g.ID,
		Name:             g.Name,
		Description:      g.Description,
		ImageURL:         image,
		TotalCost:        g.TotalCost.StringFixed(2),
		TotalCostDisplay: p.formatter.Format(g.TotalCost),
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

func (p presenter) catalogGifts(gifts []domain.Gift) []catalogGiftView {
	out := make([]catalogGiftView, 0, len(gifts))
	for _, g := range gifts {
		out = append(out, p.catalogGift(g))
	}
	return out
}

func (p presenter) gift(progress domain.GiftProgress) giftView {
	return giftView{
		catalogGiftView:      p.catalogGift(progress.Gift),
		TotalApproved:        progress.TotalApproved.StringFixed(2),
		TotalApprovedDisplay: p.formatter.Format(progress.TotalApproved),
		CountApproved:        progress.CountApproved,
		Percentage:           progress.Percentage.StringFixed(2),
		PercentageDisplay:    p.formatter.Percent(progress.Percentage),
		IsComplete:           progress.IsComplete,
	}
}

func (p presenter) gifts(progress []domain.GiftProgress) []giftView {
	out := make([]giftView, 0, len(progress))
	for _, item := range progress {
		out = append(out, p.gift(item))
	}
	return out
}

func (p presenter) contribution(c domain.Contribution) contributionView {
	return contributionView{
		ID:            c.ID,
		GiftID:        c.GiftID,
		Name:          c.Name,
		Amount:        c.Amount.StringFixed(2),
		AmountDisplay: p.formatter.Format(c.Amount),
		PaymentMethod: c.PaymentMethod,
		ProofImageURL: c.ProofImageURL,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (p presenter) contributions(items []domain.Contribution) []contributionView {
	out := make([]contributionView, 0, len(items))
	for _, c := range items {
		out = append(out, p.contribution(c))
	}
	return out
}
