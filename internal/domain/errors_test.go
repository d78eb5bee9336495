package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := PersistenceErr("could not save contribution", errors.New("connection reset"))
	wrapped := fmt.Errorf("submit: %w", base)

	if got := KindOf(wrapped); got != KindPersistence {
		t.Fatalf("expected %q, got %q", KindPersistence, got)
	}
	if !Retryable(wrapped) {
		t.Fatal("expected persistence failure to be retryable")
	}
}

func TestKindOfForeignErrorIsInternal(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("expected internal kind, got %q", got)
	}
	if IsKind(nil, KindInternal) {
		t.Fatal("expected nil error to match no kind")
	}
}

func TestValidationErrorIsNotRetryable(t *testing.T) {
	err := ValidationErr("invalid contribution", map[string]string{"amount": "must be greater than 0"})
	if Retryable(err) {
		t.Fatal("expected validation error to be final")
	}
	if err.Fields["amount"] == "" {
		t.Fatal("expected field message to be kept")
	}
}

func TestParseContributionStatus(t *testing.T) {
	tests := []struct {
		input string
		want  ContributionStatus
		ok    bool
	}{
		{input: "approved", want: StatusApproved, ok: true},
		{input: " REJECTED ", want: StatusRejected, ok: true},
		{input: "pending", want: StatusPending, ok: true},
		{input: "paid", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseContributionStatus(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("expected (%q, %t), got (%q, %t)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestChangeEventRoutingKey(t *testing.T) {
	if got := NewChangeEvent(CollectionGifts, OpDeleted, "g1").RoutingKey(); got != "gift.deleted" {
		t.Fatalf("expected gift.deleted, got %q", got)
	}
	if got := NewChangeEvent(CollectionContributions, OpUpdated, "c1").RoutingKey(); got != "contribution.updated" {
		t.Fatalf("expected contribution.updated, got %q", got)
	}
}
