package service

import (
	"context"

	"consultly/internal/parties/repository"
	apperrors "consultly/pkg/errors"
	"consultly/pkg/logger"
	"consultly/pkg/model"
)

const directoryStore = "User directory"

type PartyService interface {
	ListConsultants(ctx context.Context) ([]model.ConsultantSummary, error)
	Ready(ctx context.Context) error
}

type partyService struct {
	repo repository.PartyRepository
	log  *logger.Logger
}

func NewPartyService(repo repository.PartyRepository, log *logger.Logger) PartyService {
	return &partyService{repo: repo, log: log}
}

// ListConsultants returns every consultant without contact details.
func (s *partyService) ListConsultants(ctx context.Context) ([]model.ConsultantSummary, error) {
	parties, err := s.repo.ListByRole(ctx, model.RoleConsultant)
	if err != nil {
		s.log.Error("Failed to list consultants", "error", err)
		return nil, apperrors.UnavailableWithCause(directoryStore, err)
	}

	summaries := make([]model.ConsultantSummary, 0, len(parties))
	for _, p := range parties {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

func (s *partyService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return apperrors.UnavailableWithCause(directoryStore, err)
	}
	return nil
}
