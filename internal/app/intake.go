package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/proof"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
	"github.com/LuisRivera1699/wedding-presents/internal/validation"
)

const (
	maxNameLength = 120
	intakeScope   = "contribution_intake"
)

// maxAmount keeps amounts inside numeric(14,2).
var maxAmount = decimal.New(1, 12)

// IntakeRequest is a guest's contribution as submitted.
type IntakeRequest struct {
	GiftID        string
	Name          string
	Amount        string
	PaymentMethod string
	Proof         *Upload
	// ClientKey identifies the submitter for rate limiting, usually the client IP.
	ClientKey string
}

// IntakeSettings configures the intake service.
type IntakeSettings struct {
	PaymentMethods  []string
	ProofPrefix     string
	MaxProofBytes   int64
	Exchange        string
	RateLimitPerMin int
}

// IntakeService creates pending contributions backed by an uploaded proof of payment.
type IntakeService struct {
	gifts         store.GiftRepository
	contributions store.ContributionRepository
	archive       proof.Archive
	notifier      changeNotifier
	limiter       RateLimiter
	settings      IntakeSettings
	schema        validation.Schema[IntakeRequest]
	logger        logging.Logger
	now           func() time.Time
}

func NewIntakeService(
	gifts store.GiftRepository,
	contributions store.ContributionRepository,
	archive proof.Archive,
	publisher EventPublisher,
	settings IntakeSettings,
	logger logging.Logger,
) *IntakeService {
	if len(settings.PaymentMethods) == 0 {
		settings.PaymentMethods = domain.DefaultPaymentMethods
	}
	if settings.MaxProofBytes <= 0 {
		settings.MaxProofBytes = 10 << 20
	}
	logger = logging.Component(logger, "intake")
	return &IntakeService{
		gifts:         gifts,
		contributions: contributions,
		archive:       archive,
		notifier:      changeNotifier{publisher: publisher, exchange: settings.Exchange, logger: logger},
		settings:      settings,
		schema:        intakeSchema(settings),
		logger:        logger,
		now:           time.Now,
	}
}

// SetRateLimiter enables per-client submission limits.
func (s *IntakeService) SetRateLimiter(limiter RateLimiter) {
	s.limiter = limiter
}

// PaymentMethods lists the accepted payment channels.
func (s *IntakeService) PaymentMethods() []string {
	return append([]string(nil), s.settings.PaymentMethods...)
}

func intakeSchema(settings IntakeSettings) validation.Schema[IntakeRequest] {
	return validation.Schema[IntakeRequest]{
		Name: "contribution",
		Rules: []validation.Rule[IntakeRequest]{
			{Field: "giftId", Check: func(r IntakeRequest) bool { return validation.NotBlank(r.GiftID) }, Message: "choose a gift"},
			{Field: "name", Check: func(r IntakeRequest) bool { return validation.NotBlank(r.Name) }, Message: "name is required"},
			{Field: "name", Check: func(r IntakeRequest) bool { return validation.MaxLen(r.Name, maxNameLength) }, Message: "name is too long"},
			{Field: "amount", Check: func(r IntakeRequest) bool { return validation.Decimal(r.Amount) }, Message: "amount must be a number"},
			{Field: "amount", Check: func(r IntakeRequest) bool { return validation.Positive(parseAmount(r.Amount)) }, Message: "amount must be greater than 0"},
			{Field: "amount", Check: func(r IntakeRequest) bool { return validation.MaxDecimals(parseAmount(r.Amount), 2) }, Message: "amount can have at most two decimals"},
			{Field: "amount", Check: func(r IntakeRequest) bool { return parseAmount(r.Amount).LessThan(maxAmount) }, Message: "amount is too large"},
			{Field: "paymentMethod", Check: func(r IntakeRequest) bool { return validation.OneOf(r.PaymentMethod, settings.PaymentMethods) }, Message: "choose a valid payment method"},
			{Field: "proof", Check: func(r IntakeRequest) bool { return r.Proof != nil && r.Proof.Content != nil }, Message: "proof of payment is required"},
			{Field: "proof", Check: func(r IntakeRequest) bool { return validation.ImageContentType(r.Proof.ContentType) }, Message: "proof of payment must be an image"},
			{Field: "proof", Check: func(r IntakeRequest) bool { return r.Proof.Size <= settings.MaxProofBytes }, Message: "proof of payment is too large"},
		},
	}
}

func parseAmount(raw string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// Submit validates the request, uploads the proof and records a pending contribution.
// The record is only written after the upload has been confirmed.
func (s *IntakeService) Submit(ctx context.Context, req IntakeRequest) (*domain.Contribution, error) {
	if err := s.schema.Validate(req); err != nil {
		return nil, err
	}

	if err := consumeRateLimit(ctx, s.limiter, intakeScope, req.ClientKey, s.settings.RateLimitPerMin, s.logger); err != nil {
		return nil, err
	}

	gift, err := s.gifts.GetGift(ctx, req.GiftID)
	if err != nil {
		return nil, giftLookupErr(err, "the gift could not be loaded")
	}

	key, url, err := storeUpload(ctx, s.archive, s.settings.ProofPrefix, req.Proof, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Str("gift_id", gift.ID).Msg("proof upload failed")
		return nil, err
	}

	contribution := &domain.Contribution{
		GiftID:        gift.ID,
		Name:          strings.TrimSpace(req.Name),
		Amount:        parseAmount(req.Amount),
		PaymentMethod: req.PaymentMethod,
		ProofImageURL: url,
		Status:        domain.StatusPending,
	}
	if err := s.contributions.CreateContribution(ctx, contribution); err != nil {
		s.logger.Error().Err(err).Str("gift_id", gift.ID).Str("orphan_key", key).Msg("contribution insert failed after upload")
		return nil, domain.PersistenceErr("your contribution could not be saved, please try again", err)
	}

	s.logger.Info().Str("contribution_id", contribution.ID).Str("gift_id", gift.ID).Msg("contribution received")
	s.notifier.notify(ctx, domain.CollectionContributions, domain.OpCreated, contribution.ID)
	return contribution, nil
}
