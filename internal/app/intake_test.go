package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/store/storetest"
)

type limiterStub struct {
	count int
	err   error
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if l.err != nil {
		return 0, 0, l.err
	}
	l.count++
	return l.count, 42, nil
}

func newIntake(repo *storetest.Memory, archive *archiveStub, publisher *recordingPublisher) *IntakeService {
	return NewIntakeService(repo, repo, archive, publisher, IntakeSettings{
		PaymentMethods: domain.DefaultPaymentMethods,
		ProofPrefix:    "wedding_proofs",
		MaxProofBytes:  1024,
		Exchange:       "registry.changes",
	}, logging.Nop())
}

func validRequest(giftID string) IntakeRequest {
	return IntakeRequest{
		GiftID:        giftID,
		Name:          "Tía Carmen",
		Amount:        "120.50",
		PaymentMethod: "Interbank",
		Proof:         pngUpload("voucher.png"),
		ClientKey:     "203.0.113.7",
	}
}

func TestSubmit_RoundTripsThroughStorage(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	archive := newArchive(t)
	publisher := &recordingPublisher{}
	svc := newIntake(repo, archive, publisher)

	created, err := svc.Submit(ctx, validRequest(gift.ID))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", created.Status)
	}

	stored, err := repo.GetContribution(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetContribution returned error: %v", err)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("120.50")) || stored.PaymentMethod != "Interbank" || stored.GiftID != gift.ID {
		t.Fatalf("unexpected stored contribution %+v", stored)
	}
	if stored.Name != "Tía Carmen" {
		t.Fatalf("expected name to be kept, got %q", stored.Name)
	}

	objects, err := archive.List(ctx, "wedding_proofs")
	if err != nil || len(objects) != 1 {
		t.Fatalf("expected one stored proof, got %v (%v)", objects, err)
	}
	url, err := archive.ResolveURL(ctx, objects[0].Key)
	if err != nil || url != stored.ProofImageURL {
		t.Fatalf("expected proof url %q to resolve, got %q (%v)", stored.ProofImageURL, url, err)
	}

	if keys := publisher.keys(); len(keys) != 1 || keys[0] != "contribution.created" {
		t.Fatalf("expected contribution.created event, got %v", keys)
	}
}

func TestSubmit_ZeroAmountFailsBeforeUpload(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	archive := newArchive(t)
	svc := newIntake(repo, archive, &recordingPublisher{})

	req := validRequest(gift.ID)
	req.Amount = "0"
	_, err := svc.Submit(context.Background(), req)

	de, ok := domain.AsError(err)
	if !ok || de.Kind != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if de.Fields["amount"] == "" {
		t.Fatalf("expected amount field message, got %v", de.Fields)
	}
	if archive.puts != 0 {
		t.Fatalf("expected no upload attempt, got %d", archive.puts)
	}
}

func TestSubmit_ValidationFailures(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")

	tests := []struct {
		name   string
		mutate func(*IntakeRequest)
		field  string
	}{
		{name: "blank name", mutate: func(r *IntakeRequest) { r.Name = "  " }, field: "name"},
		{name: "negative amount", mutate: func(r *IntakeRequest) { r.Amount = "-5" }, field: "amount"},
		{name: "not a number", mutate: func(r *IntakeRequest) { r.Amount = "cien" }, field: "amount"},
		{name: "three decimals", mutate: func(r *IntakeRequest) { r.Amount = "10.005" }, field: "amount"},
		{name: "unknown method", mutate: func(r *IntakeRequest) { r.PaymentMethod = "PayPal" }, field: "paymentMethod"},
		{name: "missing proof", mutate: func(r *IntakeRequest) { r.Proof = nil }, field: "proof"},
		{name: "pdf proof", mutate: func(r *IntakeRequest) { r.Proof.ContentType = "application/pdf" }, field: "proof"},
		{name: "oversized proof", mutate: func(r *IntakeRequest) { r.Proof.Size = 4096 }, field: "proof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := newArchive(t)
			svc := newIntake(repo, archive, &recordingPublisher{})
			req := validRequest(gift.ID)
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			de, ok := domain.AsError(err)
			if !ok || de.Kind != domain.KindValidation || de.Fields[tt.field] == "" {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
			if archive.puts != 0 {
				t.Fatal("expected no upload attempt")
			}
		})
	}
}

func TestSubmit_UnknownGift(t *testing.T) {
	repo := storetest.NewMemory()
	archive := newArchive(t)
	svc := newIntake(repo, archive, &recordingPublisher{})

	_, err := svc.Submit(context.Background(), validRequest("missing"))
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if archive.puts != 0 {
		t.Fatal("expected no upload for an unknown gift")
	}
}

func TestSubmit_UploadFailureCreatesNoRecord(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	archive := newArchive(t)
	archive.putErr = errStoreDown
	publisher := &recordingPublisher{}
	svc := newIntake(repo, archive, publisher)

	_, err := svc.Submit(ctx, validRequest(gift.ID))
	if !domain.IsKind(err, domain.KindUpload) || !domain.Retryable(err) {
		t.Fatalf("expected retryable upload error, got %v", err)
	}
	all, _ := repo.ListContributions(ctx, domain.ContributionQuery{})
	if len(all) != 0 {
		t.Fatalf("expected no contribution, got %d", len(all))
	}
	if len(publisher.keys()) != 0 {
		t.Fatal("expected no change event")
	}
}

func TestSubmit_InsertFailureAfterUpload(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	archive := newArchive(t)
	publisher := &recordingPublisher{}
	svc := newIntake(repo, archive, publisher)

	repo.SetErrors(nil, errStoreDown, nil, nil)
	_, err := svc.Submit(ctx, validRequest(gift.ID))
	if !domain.IsKind(err, domain.KindPersistence) || !domain.Retryable(err) {
		t.Fatalf("expected retryable persistence error, got %v", err)
	}
	if archive.puts != 1 {
		t.Fatalf("expected the upload to have happened, got %d puts", archive.puts)
	}

	repo.SetErrors(nil, nil, nil, nil)
	all, _ := repo.ListContributions(ctx, domain.ContributionQuery{})
	if len(all) != 0 {
		t.Fatalf("expected no visible contribution, got %d", len(all))
	}
	if len(publisher.keys()) != 0 {
		t.Fatal("expected no change event")
	}
}

func TestSubmit_PublishFailureKeepsRecord(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	svc := newIntake(repo, newArchive(t), &recordingPublisher{err: errStoreDown})

	created, err := svc.Submit(context.Background(), validRequest(gift.ID))
	if err != nil {
		t.Fatalf("expected publish failure to be tolerated, got %v", err)
	}
	if _, err := repo.GetContribution(context.Background(), created.ID); err != nil {
		t.Fatalf("expected record to be committed, got %v", err)
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	archive := newArchive(t)
	svc := newIntake(repo, archive, &recordingPublisher{})
	svc.settings.RateLimitPerMin = 1
	svc.SetRateLimiter(&limiterStub{})

	if _, err := svc.Submit(context.Background(), validRequest(gift.ID)); err != nil {
		t.Fatalf("expected first submission to pass, got %v", err)
	}
	_, err := svc.Submit(context.Background(), validRequest(gift.ID))
	if !domain.IsKind(err, domain.KindRateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if archive.puts != 1 {
		t.Fatalf("expected the limited submission not to upload, got %d puts", archive.puts)
	}
}

func TestSubmit_LimiterOutageFailsOpen(t *testing.T) {
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	svc := newIntake(repo, newArchive(t), &recordingPublisher{})
	svc.settings.RateLimitPerMin = 1
	svc.SetRateLimiter(&limiterStub{err: errStoreDown})

	if _, err := svc.Submit(context.Background(), validRequest(gift.ID)); err != nil {
		t.Fatalf("expected submission to pass while limiter is down, got %v", err)
	}
}

func TestParseLimiterResult(t *testing.T) {
	count, retry, err := parseLimiterResult([]interface{}{int64(3), int64(1500)}, 60000)
	if err != nil || count != 3 || retry != 2 {
		t.Fatalf("expected (3, 2), got (%d, %d, %v)", count, retry, err)
	}
	if _, _, err := parseLimiterResult("bad", 60000); err == nil {
		t.Fatal("expected shape error")
	}
}

func TestRedisRateLimiter_KeyAndDisabledClient(t *testing.T) {
	limiter := NewRedisRateLimiter(nil, " wedding: ")
	if got := limiter.key(intakeScope, "203.0.113.7"); got != "wedding:rate_limit:contribution_intake:203.0.113.7" {
		t.Fatalf("unexpected key %q", got)
	}
	count, retry, err := limiter.ConsumeRateLimit(context.Background(), intakeScope, "203.0.113.7", 5, time.Minute)
	if err != nil || count != 0 || retry != 0 {
		t.Fatalf("expected a limiter without client to allow, got (%d, %d, %v)", count, retry, err)
	}
}
