/**
 * @description
 * This file defines the repository contracts of the registry service. The gift catalog and
 * the contribution ledger are two logical collections whose physical names are injected
 * through Collections, so the business logic never hard-codes where records live.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"strings"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

const (
	DefaultGiftsCollection         = "wedding_gifts"
	DefaultContributionsCollection = "wedding_contributions"
)

// Collections names the tables backing each logical collection.
type Collections struct {
	Gifts         string
	Contributions string
}

// DefaultCollections returns the collection names used when none are configured.
func DefaultCollections() Collections {
	return Collections{Gifts: DefaultGiftsCollection, Contributions: DefaultContributionsCollection}
}

func (c Collections) withDefaults() Collections {
	if strings.TrimSpace(c.Gifts) == "" {
		c.Gifts = DefaultGiftsCollection
	}
	if strings.TrimSpace(c.Contributions) == "" {
		c.Contributions = DefaultContributionsCollection
	}
	c.Gifts = strings.TrimSpace(c.Gifts)
	c.Contributions = strings.TrimSpace(c.Contributions)
	return c
}

// GiftRepository is the catalog store.
type GiftRepository interface {
	// ListGifts returns every gift, newest first.
	ListGifts(ctx context.Context) ([]domain.Gift, error)
	GetGift(ctx context.Context, id string) (*domain.Gift, error)
	// CreateGift assigns ID and timestamps on gift.
	CreateGift(ctx context.Context, gift *domain.Gift) error
	UpdateGift(ctx context.Context, id string, patch domain.GiftPatch) (*domain.Gift, error)
	DeleteGift(ctx context.Context, id string) error
}

// ContributionRepository is the contribution ledger.
type ContributionRepository interface {
	// ListContributions returns contributions matching query, newest first.
	ListContributions(ctx context.Context, query domain.ContributionQuery) ([]domain.Contribution, error)
	GetContribution(ctx context.Context, id string) (*domain.Contribution, error)
	// CreateContribution assigns ID and timestamps on contribution.
	CreateContribution(ctx context.Context, contribution *domain.Contribution) error
	// UpdateContributionStatus sets status and reports whether the stored value changed.
	// A same-status call leaves the record, including updated_at, untouched.
	UpdateContributionStatus(ctx context.Context, id string, status domain.ContributionStatus) (*domain.Contribution, bool, error)
	DeleteContribution(ctx context.Context, id string) error
}

// ReferenceLister reports every object-storage URL still referenced by a record.
type ReferenceLister interface {
	ListReferencedURLs(ctx context.Context) (map[string]struct{}, error)
}

// Repository is the full data access contract.
type Repository interface {
	GiftRepository
	ContributionRepository
	ReferenceLister
}
