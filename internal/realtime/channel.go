package realtime

import (
	"context"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/funding"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
)

// Channel opens live views over the catalog and the contribution ledger.
type Channel struct {
	gifts         store.GiftRepository
	contributions store.ContributionRepository
	broadcaster   *Broadcaster
}

func NewChannel(gifts store.GiftRepository, contributions store.ContributionRepository, broadcaster *Broadcaster) *Channel {
	return &Channel{gifts: gifts, contributions: contributions, broadcaster: broadcaster}
}

// SubscribeAllContributions streams every contribution, newest first. This is the administrator view.
func (c *Channel) SubscribeAllContributions(ctx context.Context) *Subscription[domain.Contribution] {
	return subscribe(ctx, c.broadcaster, "contributions.all", func(ctx context.Context) ([]domain.Contribution, error) {
		return c.contributions.ListContributions(ctx, domain.ContributionQuery{})
	}, domain.CollectionContributions)
}

// SubscribeApprovedContributions streams only approved contributions, newest first.
func (c *Channel) SubscribeApprovedContributions(ctx context.Context) *Subscription[domain.Contribution] {
	return subscribe(ctx, c.broadcaster, "contributions.approved", c.approved, domain.CollectionContributions)
}

// SubscribeGifts streams the catalog, newest first.
func (c *Channel) SubscribeGifts(ctx context.Context) *Subscription[domain.Gift] {
	return subscribe(ctx, c.broadcaster, "gifts", c.gifts.ListGifts, domain.CollectionGifts)
}

// SubscribeFunding streams the funding progress of every gift, recomputed after each change
// to either collection.
func (c *Channel) SubscribeFunding(ctx context.Context) *Subscription[domain.GiftProgress] {
	return subscribe(ctx, c.broadcaster, "funding", func(ctx context.Context) ([]domain.GiftProgress, error) {
		gifts, err := c.gifts.ListGifts(ctx)
		if err != nil {
			return nil, err
		}
		approved, err := c.approved(ctx)
		if err != nil {
			return nil, err
		}
		return funding.SummarizeAll(gifts, approved), nil
	}, domain.CollectionGifts, domain.CollectionContributions)
}

func (c *Channel) approved(ctx context.Context) ([]domain.Contribution, error) {
	return c.contributions.ListContributions(ctx, domain.ContributionQuery{Status: domain.StatusApproved})
}
