package app

import (
	"context"
	"strings"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
)

// ModerationService lets the administrator approve, reject and delete contributions.
type ModerationService struct {
	gate          auth.Gate
	contributions store.ContributionRepository
	notifier      changeNotifier
	logger        logging.Logger
}

func NewModerationService(gate auth.Gate, contributions store.ContributionRepository, publisher EventPublisher, exchange string, logger logging.Logger) *ModerationService {
	logger = logging.Component(logger, "moderation")
	return &ModerationService{
		gate:          gate,
		contributions: contributions,
		notifier:      changeNotifier{publisher: publisher, exchange: exchange, logger: logger},
		logger:        logger,
	}
}

// List returns contributions for the administrator view, newest first.
func (s *ModerationService) List(ctx context.Context, session auth.Session, query domain.ContributionQuery) ([]domain.Contribution, error) {
	if err := s.gate.Authorize(session); err != nil {
		return nil, err
	}
	contributions, err := s.contributions.ListContributions(ctx, query)
	if err != nil {
		return nil, domain.PersistenceErr("contributions could not be loaded", err)
	}
	return contributions, nil
}

// SetStatus moves a contribution to approved or rejected from any state. Setting the
// current status again changes nothing and is not an error.
func (s *ModerationService) SetStatus(ctx context.Context, session auth.Session, id string, status domain.ContributionStatus) (*domain.Contribution, error) {
	if err := s.gate.Authorize(session); err != nil {
		return nil, err
	}
	if !status.IsModerationTarget() {
		return nil, domain.ValidationErr("invalid status", map[string]string{"status": "status must be approved or rejected"})
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NotFoundErr("contribution not found")
	}

	contribution, changed, err := s.contributions.UpdateContributionStatus(ctx, id, status)
	if err != nil {
		return nil, contributionLookupErr(err, "the contribution could not be updated")
	}
	if !changed {
		s.logger.Debug().Str("contribution_id", id).Str("status", string(status)).Msg("status unchanged")
		return contribution, nil
	}

	s.logger.Info().Str("contribution_id", id).Str("status", string(status)).Msg("contribution moderated")
	s.notifier.notify(ctx, domain.CollectionContributions, domain.OpUpdated, id)
	return contribution, nil
}

// Delete permanently removes a contribution in any state.
func (s *ModerationService) Delete(ctx context.Context, session auth.Session, id string) error {
	if err := s.gate.Authorize(session); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NotFoundErr("contribution not found")
	}
	if err := s.contributions.DeleteContribution(ctx, id); err != nil {
		return contributionLookupErr(err, "the contribution could not be deleted")
	}

	s.logger.Info().Str("contribution_id", id).Msg("contribution deleted")
	s.notifier.notify(ctx, domain.CollectionContributions, domain.OpDeleted, id)
	return nil
}
