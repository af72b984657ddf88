package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one audit event. A failed append is logged but never
// surfaced to the mutating operation that produced it.
func (s *Service) Record(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Actor == "" {
		e.Actor = "system"
	}
	if err := s.repo.Record(ctx, e); err != nil {
		s.logger.Error().Err(err).
			Str("action", e.Action).
			Str("module", e.Module).
			Msg("failed to record audit event")
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
