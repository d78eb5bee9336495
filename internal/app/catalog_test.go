package app

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/store/storetest"
)

func newCatalog(repo *storetest.Memory, archive *archiveStub, publisher *recordingPublisher) *CatalogService {
	return NewCatalogService(auth.NewGate(adminEmail), repo, repo, archive, publisher, CatalogSettings{
		ImagePrefix:   "wedding_gifts",
		MaxImageBytes: 1024,
		Exchange:      "registry.changes",
	}, logging.Nop())
}

func TestCreateGift(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	archive := newArchive(t)
	publisher := &recordingPublisher{}
	svc := newCatalog(repo, archive, publisher)

	gift, err := svc.CreateGift(ctx, adminSession, GiftInput{
		Name:        strPtr("  Juego de ollas "),
		Description: strPtr("Acero inoxidable"),
		TotalCost:   strPtr("450.90"),
		Image:       pngUpload("ollas.png"),
	})
	if err != nil {
		t.Fatalf("CreateGift returned error: %v", err)
	}
	if gift.Name != "Juego de ollas" || !gift.TotalCost.Equal(decimal.RequireFromString("450.90")) {
		t.Fatalf("unexpected gift %+v", gift)
	}
	if !strings.HasPrefix(gift.ImageURL, "https://boda.example.com/uploads/wedding_gifts/") {
		t.Fatalf("expected uploaded image url, got %q", gift.ImageURL)
	}
	if keys := publisher.keys(); len(keys) != 1 || keys[0] != "gift.created" {
		t.Fatalf("expected gift.created event, got %v", keys)
	}
}

func TestCreateGift_WithoutImage(t *testing.T) {
	repo := storetest.NewMemory()
	archive := newArchive(t)
	svc := newCatalog(repo, archive, &recordingPublisher{})

	gift, err := svc.CreateGift(context.Background(), adminSession, GiftInput{
		Name:        strPtr("Licuadora"),
		Description: strPtr("Para los batidos"),
		TotalCost:   strPtr("300"),
	})
	if err != nil {
		t.Fatalf("CreateGift returned error: %v", err)
	}
	if gift.ImageURL != "" || archive.puts != 0 {
		t.Fatalf("expected no image upload, got %q after %d puts", gift.ImageURL, archive.puts)
	}
}

func TestCreateGift_Rejections(t *testing.T) {
	valid := func() GiftInput {
		return GiftInput{Name: strPtr("Sofá"), Description: strPtr("Tres cuerpos"), TotalCost: strPtr("1000")}
	}
	tests := []struct {
		name    string
		session auth.Session
		mutate  func(*GiftInput)
		kind    domain.ErrorKind
		field   string
	}{
		{name: "anonymous", session: auth.Session{}, mutate: func(*GiftInput) {}, kind: domain.KindAuthorization},
		{name: "guest", session: guestSession, mutate: func(*GiftInput) {}, kind: domain.KindAuthorization},
		{name: "missing name", session: adminSession, mutate: func(g *GiftInput) { g.Name = nil }, kind: domain.KindValidation, field: "name"},
		{name: "blank description", session: adminSession, mutate: func(g *GiftInput) { g.Description = strPtr(" ") }, kind: domain.KindValidation, field: "description"},
		{name: "zero cost", session: adminSession, mutate: func(g *GiftInput) { g.TotalCost = strPtr("0") }, kind: domain.KindValidation, field: "totalCost"},
		{name: "text cost", session: adminSession, mutate: func(g *GiftInput) { g.TotalCost = strPtr("mil") }, kind: domain.KindValidation, field: "totalCost"},
		{name: "pdf image", session: adminSession, mutate: func(g *GiftInput) {
			g.Image = pngUpload("x.pdf")
			g.Image.ContentType = "application/pdf"
		}, kind: domain.KindValidation, field: "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storetest.NewMemory()
			archive := newArchive(t)
			svc := newCatalog(repo, archive, &recordingPublisher{})
			in := valid()
			tt.mutate(&in)

			_, err := svc.CreateGift(context.Background(), tt.session, in)
			de, ok := domain.AsError(err)
			if !ok || de.Kind != tt.kind {
				t.Fatalf("expected %s error, got %v", tt.kind, err)
			}
			if tt.field != "" && de.Fields[tt.field] == "" {
				t.Fatalf("expected message for %s, got %v", tt.field, de.Fields)
			}
			gifts, _ := repo.ListGifts(context.Background())
			if len(gifts) != 0 || archive.puts != 0 {
				t.Fatal("expected nothing stored")
			}
		})
	}
}

func TestUpdateGift_PartialPatch(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	publisher := &recordingPublisher{}
	svc := newCatalog(repo, newArchive(t), publisher)

	updated, err := svc.UpdateGift(ctx, adminSession, gift.ID, GiftInput{TotalCost: strPtr("1200.00")})
	if err != nil {
		t.Fatalf("UpdateGift returned error: %v", err)
	}
	if !updated.TotalCost.Equal(decimal.NewFromInt(1200)) || updated.Name != gift.Name || updated.Description != gift.Description {
		t.Fatalf("expected only the cost to change, got %+v", updated)
	}
	if keys := publisher.keys(); len(keys) != 1 || keys[0] != "gift.updated" {
		t.Fatalf("expected gift.updated event, got %v", keys)
	}
}

func TestUpdateGift_Rejections(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	svc := newCatalog(repo, newArchive(t), &recordingPublisher{})

	if _, err := svc.UpdateGift(ctx, guestSession, gift.ID, GiftInput{Name: strPtr("x")}); !domain.IsKind(err, domain.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, err := svc.UpdateGift(ctx, adminSession, gift.ID, GiftInput{}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}
	if _, err := svc.UpdateGift(ctx, adminSession, gift.ID, GiftInput{Name: strPtr("  ")}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := svc.UpdateGift(ctx, adminSession, "missing", GiftInput{Name: strPtr("Mesa")}); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteGift_KeepsContributions(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	gift := seedGift(t, repo, "1000")
	c := seedContribution(t, repo, gift.ID, "100", domain.StatusApproved)
	publisher := &recordingPublisher{}
	svc := newCatalog(repo, newArchive(t), publisher)

	if err := svc.DeleteGift(ctx, adminSession, gift.ID); err != nil {
		t.Fatalf("DeleteGift returned error: %v", err)
	}
	if _, err := svc.GetGift(ctx, gift.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected deleted gift to be missing, got %v", err)
	}
	if _, err := repo.GetContribution(ctx, c.ID); err != nil {
		t.Fatalf("expected contribution to remain, got %v", err)
	}
	if keys := publisher.keys(); len(keys) != 1 || keys[0] != "gift.deleted" {
		t.Fatalf("expected gift.deleted event, got %v", keys)
	}
}

func TestListGifts_IncludesProgress(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewMemory()
	first := seedGift(t, repo, "1000")
	second := seedGift(t, repo, "200")
	seedContribution(t, repo, first.ID, "250", domain.StatusApproved)
	seedContribution(t, repo, first.ID, "300", domain.StatusPending)
	seedContribution(t, repo, second.ID, "200", domain.StatusApproved)
	svc := newCatalog(repo, newArchive(t), &recordingPublisher{})

	progress, err := svc.ListGifts(ctx)
	if err != nil {
		t.Fatalf("ListGifts returned error: %v", err)
	}
	if len(progress) != 2 || progress[0].Gift.ID != second.ID {
		t.Fatalf("expected newest gift first, got %+v", progress)
	}
	if !progress[0].IsComplete {
		t.Fatal("expected second gift to be complete")
	}
	if !progress[1].Percentage.Equal(decimal.NewFromInt(25)) || progress[1].CountApproved != 1 {
		t.Fatalf("expected 25%% from one contribution, got %+v", progress[1])
	}

	one, err := svc.GetGift(ctx, first.ID)
	if err != nil || !one.TotalApproved.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected 250 approved, got %+v (%v)", one, err)
	}
}

func TestListGifts_StoreFailure(t *testing.T) {
	repo := storetest.NewMemory()
	repo.SetErrors(errStoreDown, nil, nil, nil)
	svc := newCatalog(repo, newArchive(t), &recordingPublisher{})

	if _, err := svc.ListGifts(context.Background()); !domain.IsKind(err, domain.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
