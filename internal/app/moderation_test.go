package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/funding"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/store/storetest"
)

func seedContribution(t *testing.T, repo *storetest.Memory, giftID, amount string, status domain.ContributionStatus) domain.Contribution {
	t.Helper()
	c := &domain.Contribution{
		GiftID:        giftID,
		Name:          "Primo Jorge",
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: "Yape Luis",
		ProofImageURL: "https://boda.example.com/uploads/wedding_proofs/" + amount + ".png",
		Status:        status,
	}
	if err := repo.CreateContribution(context.Background(), c); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	return *c
}

func newModeration(repo *storetest.Memory, publisher *recordingPublisher) *ModerationService {
	return NewModerationService(auth.NewGate(adminEmail), repo, publisher, "registry.changes", logging.Nop())
}

func TestSetStatus_RequiresAdministrator(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	c := seedContribution(t, repo, gift.ID, "100", domain.StatusPending)
	publisher := &recordingPublisher{}
	svc := newModeration(repo, publisher)

	for _, session := range []auth.Session{{}, guestSession} {
		_, err := svc.SetStatus(ctx, session, c.ID, domain.StatusApproved)
		if !domain.IsKind(err, domain.KindAuthorization) {
			t.Fatalf("expected authorization error for %q, got %v", session.Identity, err)
		}
	}
	if repo.Writes() != 0 {
		t.Fatalf("expected no store writes, got %d", repo.Writes())
	}
	stored, _ := repo.GetContribution(ctx, c.ID)
	if stored.Status != domain.StatusPending {
		t.Fatalf("expected status to stay pending, got %q", stored.Status)
	}
	if len(publisher.keys()) != 0 {
		t.Fatal("expected no change event")
	}
	if _, err := svc.List(ctx, guestSession, domain.ContributionQuery{}); !domain.IsKind(err, domain.KindAuthorization) {
		t.Fatalf("expected list to be denied, got %v", err)
	}
}

func TestSetStatus_SameStatusIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	c := seedContribution(t, repo, gift.ID, "100", domain.StatusApproved)
	publisher := &recordingPublisher{}
	svc := newModeration(repo, publisher)

	got, err := svc.SetStatus(ctx, adminSession, c.ID, domain.StatusApproved)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Status != domain.StatusApproved || !got.UpdatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("expected unchanged record, got %+v", got)
	}
	if repo.Writes() != 0 || len(publisher.keys()) != 0 {
		t.Fatalf("expected no write and no event, got %d writes and %v", repo.Writes(), publisher.keys())
	}
}

func TestSetStatus_ReversalLeavesTotals(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	seedContribution(t, repo, gift.ID, "500", domain.StatusApproved)
	c := seedContribution(t, repo, gift.ID, "150", domain.StatusPending)
	publisher := &recordingPublisher{}
	svc := newModeration(repo, publisher)

	approvedTotal := func() decimal.Decimal {
		approved, err := repo.ListContributions(ctx, domain.ContributionQuery{Status: domain.StatusApproved})
		if err != nil {
			t.Fatalf("ListContributions returned error: %v", err)
		}
		return funding.TotalApproved(approved, gift.ID)
	}

	if _, err := svc.SetStatus(ctx, adminSession, c.ID, domain.StatusApproved); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	if got := approvedTotal(); !got.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("expected 650 after approval, got %s", got)
	}

	if _, err := svc.SetStatus(ctx, adminSession, c.ID, domain.StatusRejected); err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	if got := approvedTotal(); !got.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected 500 after rejection, got %s", got)
	}

	keys := publisher.keys()
	if len(keys) != 2 || keys[0] != "contribution.updated" || keys[1] != "contribution.updated" {
		t.Fatalf("expected two update events, got %v", keys)
	}
}

func TestSetStatus_InvalidTarget(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	c := seedContribution(t, repo, gift.ID, "100", domain.StatusApproved)
	svc := newModeration(repo, &recordingPublisher{})

	_, err := svc.SetStatus(context.Background(), adminSession, c.ID, domain.StatusPending)
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.Writes() != 0 {
		t.Fatal("expected no store write")
	}
}

func TestSetStatus_UnknownContribution(t *testing.T) {
	svc := newModeration(storetest.NewMemory(), &recordingPublisher{})

	_, err := svc.SetStatus(context.Background(), adminSession, "missing", domain.StatusApproved)
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetStatus_StoreFailure(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	c := seedContribution(t, repo, gift.ID, "100", domain.StatusPending)
	repo.SetErrors(nil, nil, errStoreDown, nil)
	svc := newModeration(repo, &recordingPublisher{})

	_, err := svc.SetStatus(context.Background(), adminSession, c.ID, domain.StatusApproved)
	if !domain.IsKind(err, domain.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestDeleteContribution(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	c := seedContribution(t, repo, gift.ID, "100", domain.StatusApproved)
	publisher := &recordingPublisher{}
	svc := newModeration(repo, publisher)

	if err := svc.Delete(ctx, guestSession, c.ID); !domain.IsKind(err, domain.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := svc.Delete(ctx, adminSession, c.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.GetContribution(ctx, c.ID); err == nil {
		t.Fatal("expected contribution to be gone")
	}
	if err := svc.Delete(ctx, adminSession, c.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if keys := publisher.keys(); len(keys) != 1 || keys[0] != "contribution.deleted" {
		t.Fatalf("expected one delete event, got %v", keys)
	}
}

func TestListContributions_FiltersByStatus(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	seedContribution(t, repo, gift.ID, "100", domain.StatusApproved)
	pending := seedContribution(t, repo, gift.ID, "200", domain.StatusPending)
	svc := newModeration(repo, &recordingPublisher{})

	got, err := svc.List(context.Background(), adminSession, domain.ContributionQuery{Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != pending.ID {
		t.Fatalf("expected only the pending contribution, got %+v", got)
	}
}
