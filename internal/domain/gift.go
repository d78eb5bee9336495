/**
 * @description
 * Domain models for the gift catalog and the funding progress derived from it.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gift is a funding target on the wish list.
type Gift struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// GiftPatch carries the fields an administrator may change on an existing gift.
// Nil fields are left untouched.
type GiftPatch struct {
	Name        *string
	Description *string
	ImageURL    *string
	TotalCost   *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p GiftPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.ImageURL == nil && p.TotalCost == nil
}

// GiftProgress is the aggregated funding state of one gift.
type GiftProgress struct {
	Gift          Gift            `json:"gift"`
	TotalApproved decimal.Decimal `json:"total_approved"`
	CountApproved int             `json:"count_approved"`
	Percentage    decimal.Decimal `json:"percentage"`
	IsComplete    bool            `json:"is_complete"`
}
