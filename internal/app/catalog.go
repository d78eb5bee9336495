package app

import (
	"context"
	"strings"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/funding"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/proof"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
	"github.com/LuisRivera1699/wedding-presents/internal/validation"
)

// GiftInput carries a new gift or a partial update. Nil fields are left untouched on update.
type GiftInput struct {
	Name        *string
	Description *string
	TotalCost   *string
	Image       *Upload
}

// CatalogSettings configures the catalog service.
type CatalogSettings struct {
	ImagePrefix   string
	MaxImageBytes int64
	Exchange      string
}

// CatalogService reads the catalog for everyone and changes it for the administrator.
type CatalogService struct {
	gate          auth.Gate
	gifts         store.GiftRepository
	contributions store.ContributionRepository
	archive       proof.Archive
	notifier      changeNotifier
	settings      CatalogSettings
	createSchema  validation.Schema[GiftInput]
	updateSchema  validation.Schema[GiftInput]
	logger        logging.Logger
	now           func() time.Time
}

func NewCatalogService(
	gate auth.Gate,
	gifts store.GiftRepository,
	contributions store.ContributionRepository,
	archive proof.Archive,
	publisher EventPublisher,
	settings CatalogSettings,
	logger logging.Logger,
) *CatalogService {
	if settings.MaxImageBytes <= 0 {
		settings.MaxImageBytes = 10 << 20
	}
	logger = logging.Component(logger, "catalog")
	return &CatalogService{
		gate:          gate,
		gifts:         gifts,
		contributions: contributions,
		archive:       archive,
		notifier:      changeNotifier{publisher: publisher, exchange: settings.Exchange, logger: logger},
		settings:      settings,
		createSchema:  giftSchema(settings, true),
		updateSchema:  giftSchema(settings, false),
		logger:        logger,
		now:           time.Now,
	}
}

func giftSchema(settings CatalogSettings, create bool) validation.Schema[GiftInput] {
	// present reports whether a field is set, or is allowed to be absent on update.
	present := func(v *string) bool { return v != nil || !create }
	text := func(v *string) bool { return v == nil || validation.NotBlank(*v) }
	cost := func(v *string) bool { return v == nil || validation.Decimal(*v) }
	positive := func(v *string) bool { return v == nil || validation.Positive(parseAmount(*v)) }

	return validation.Schema[GiftInput]{
		Name: "gift",
		Rules: []validation.Rule[GiftInput]{
			{Field: "name", Check: func(g GiftInput) bool { return present(g.Name) && text(g.Name) }, Message: "name is required"},
			{Field: "name", Check: func(g GiftInput) bool { return g.Name == nil || validation.MaxLen(*g.Name, maxNameLength) }, Message: "name is too long"},
			{Field: "description", Check: func(g GiftInput) bool { return present(g.Description) && text(g.Description) }, Message: "description is required"},
			{Field: "totalCost", Check: func(g GiftInput) bool { return present(g.TotalCost) && cost(g.TotalCost) }, Message: "total cost must be a number"},
			{Field: "totalCost", Check: func(g GiftInput) bool { return positive(g.TotalCost) }, Message: "total cost must be greater than 0"},
			{Field: "totalCost", Check: func(g GiftInput) bool {
				return g.TotalCost == nil || (validation.MaxDecimals(parseAmount(*g.TotalCost), 2) && parseAmount(*g.TotalCost).LessThan(maxAmount))
			}, Message: "total cost is out of range"},
			{Field: "image", Check: func(g GiftInput) bool { return g.Image == nil || validation.ImageContentType(g.Image.ContentType) }, Message: "image must be an image file"},
			{Field: "image", Check: func(g GiftInput) bool { return g.Image == nil || g.Image.Size <= settings.MaxImageBytes }, Message: "image is too large"},
		},
	}
}

// ListGifts returns every gift with its funding progress, newest first.
func (s *CatalogService) ListGifts(ctx context.Context) ([]domain.GiftProgress, error) {
	gifts, err := s.gifts.ListGifts(ctx)
	if err != nil {
		return nil, domain.PersistenceErr("gifts could not be loaded", err)
	}
	approved, err := s.contributions.ListContributions(ctx, domain.ContributionQuery{Status: domain.StatusApproved})
	if err != nil {
		return nil, domain.PersistenceErr("gifts could not be loaded", err)
	}
	return funding.SummarizeAll(gifts, approved), nil
}

// GetGift returns one gift with its funding progress.
func (s *CatalogService) GetGift(ctx context.Context, id string) (*domain.GiftProgress, error) {
	gift, err := s.gifts.GetGift(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, giftLookupErr(err, "the gift could not be loaded")
	}
	approved, err := s.contributions.ListContributions(ctx, domain.ContributionQuery{Status: domain.StatusApproved, GiftID: gift.ID})
	if err != nil {
		return nil, domain.PersistenceErr("the gift could not be loaded", err)
	}
	progress := funding.Summarize(*gift, approved)
	return &progress, nil
}

// CreateGift validates and stores a new gift, uploading its image first when one is given.
func (s *CatalogService) CreateGift(ctx context.Context, session auth.Session, in GiftInput) (*domain.Gift, error) {
	if err := s.gate.Authorize(session); err != nil {
		return nil, err
	}
	if err := s.createSchema.Validate(in); err != nil {
		return nil, err
	}

	gift := &domain.Gift{
		Name:        strings.TrimSpace(*in.Name),
		Description: strings.TrimSpace(*in.Description),
		TotalCost:   parseAmount(*in.TotalCost),
	}
	if in.Image != nil {
		_, url, err := storeUpload(ctx, s.archive, s.settings.ImagePrefix, in.Image, s.now())
		if err != nil {
			return nil, err
		}
		gift.ImageURL = url
	}

	if err := s.gifts.CreateGift(ctx, gift); err != nil {
		return nil, domain.PersistenceErr("the gift could not be saved", err)
	}
	s.logger.Info().Str("gift_id", gift.ID).Msg("gift created")
	s.notifier.notify(ctx, domain.CollectionGifts, domain.OpCreated, gift.ID)
	return gift, nil
}

// UpdateGift applies a partial update. A new image replaces the previous one.
func (s *CatalogService) UpdateGift(ctx context.Context, session auth.Session, id string, in GiftInput) (*domain.Gift, error) {
	if err := s.gate.Authorize(session); err != nil {
		return nil, err
	}
	if in.Name == nil && in.Description == nil && in.TotalCost == nil && in.Image == nil {
		return nil, domain.ValidationErr("invalid gift", map[string]string{"gift": "nothing to update"})
	}
	if err := s.updateSchema.Validate(in); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if _, err := s.gifts.GetGift(ctx, id); err != nil {
		return nil, giftLookupErr(err, "the gift could not be loaded")
	}

	var patch domain.GiftPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		patch.Description = &description
	}
	if in.TotalCost != nil {
		cost := parseAmount(*in.TotalCost)
		patch.TotalCost = &cost
	}
	if in.Image != nil {
		_, url, err := storeUpload(ctx, s.archive, s.settings.ImagePrefix, in.Image, s.now())
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &url
	}
	gift, err := s.gifts.UpdateGift(ctx, id, patch)
	if err != nil {
		return nil, giftLookupErr(err, "the gift could not be saved")
	}
	s.logger.Info().Str("gift_id", gift.ID).Msg("gift updated")
	s.notifier.notify(ctx, domain.CollectionGifts, domain.OpUpdated, gift.ID)
	return gift, nil
}

// DeleteGift removes a gift. Its contributions stay in the ledger.
func (s *CatalogService) DeleteGift(ctx context.Context, session auth.Session, id string) error {
	if err := s.gate.Authorize(session); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.gifts.DeleteGift(ctx, id); err != nil {
		return giftLookupErr(err, "the gift could not be deleted")
	}
	s.logger.Info().Str("gift_id", id).Msg("gift deleted")
	s.notifier.notify(ctx, domain.CollectionGifts, domain.OpDeleted, id)
	return nil
}
