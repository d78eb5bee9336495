/**
 * @description
 * Domain models for guest contributions and their moderation status.
 */
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContributionStatus is the moderation state of a contribution.
type ContributionStatus string

const (
	StatusPending  ContributionStatus = "pending"
	StatusApproved ContributionStatus = "approved"
	StatusRejected ContributionStatus = "rejected"
)

// ParseContributionStatus normalizes raw input into a known status.
func ParseContributionStatus(raw string) (ContributionStatus, bool) {
	switch ContributionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	default:
		return "", false
	}
}

// IsModerationTarget reports whether an administrator may move a contribution into s.
func (s ContributionStatus) IsModerationTarget() bool {
	return s == StatusApproved || s == StatusRejected
}

// DefaultPaymentMethods are the accepted payment channels when none are configured.
var DefaultPaymentMethods = []string{"Yape Sofía", "Yape Luis", "Interbank"}

// Contribution is a guest's claimed payment toward a gift. Only Status and
// UpdatedAt change after creation.
type Contribution struct {
	ID            string             `json:"id"`
	GiftID        string             `json:"gift_id"`
	Name          string             `json:"name"`
	Amount        decimal.Decimal    `json:"amount"`
	PaymentMethod string             `json:"payment_method"`
	ProofImageURL string             `json:"proof_image_url"`
	Status        ContributionStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ContributionQuery filters an ordered contribution listing.
type ContributionQuery struct {
	Status ContributionStatus
	GiftID string
}
