package journey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/websocket"
)

const auditModule = "queue"

// Service drives the station router, the order fan-out/fan-in engine and the
// queue selector. Every mutation is audited and broadcast to queue
// subscribers; the permissive no-op policy of the store is preserved.
type Service struct {
	repo   Repository
	rec    audit.Recorder
	events websocket.EventPublisher
	logger zerolog.Logger
}

func NewService(repo Repository, rec audit.Recorder, events websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, rec: rec, events: events, logger: logger}
}

func (s *Service) CheckIn(ctx context.Context, name, chiefComplaint string, priority Priority) (*QueuePatient, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}

	p, err := s.repo.CheckIn(ctx, name, chiefComplaint, priority)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "check-in", fmt.Sprintf("checked in %s (%s)", p.TicketNumber, priority))
	s.publish(ctx, "patient.checked-in", p)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*QueuePatient, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Transfer(ctx context.Context, id uuid.UUID, to Station, room *RoomAssignment) (*QueuePatient, bool, error) {
	if !to.Valid() {
		return nil, false, fmt.Errorf("invalid station: %s", to)
	}
	p, applied, err := s.repo.Transfer(ctx, id, to, room)
	if applied {
		s.audit(ctx, "transfer", fmt.Sprintf("moved %s to %s", p.TicketNumber, to))
		s.publish(ctx, "patient.transferred", p)
	}
	return p, applied, err
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.Complete(ctx, id)
	if applied {
		s.audit(ctx, "complete", fmt.Sprintf("completed %s", p.TicketNumber))
		s.publish(ctx, "patient.completed", p)
	}
	return p, applied, err
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.MarkNoShow(ctx, id)
	if applied {
		s.audit(ctx, "no-show", fmt.Sprintf("marked %s as no-show", p.TicketNumber))
		s.publish(ctx, "patient.no-show", p)
	}
	return p, applied, err
}

func (s *Service) Skip(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.Skip(ctx, id)
	if applied {
		s.audit(ctx, "skip", fmt.Sprintf("re-queued %s at the back of %s", p.TicketNumber, p.Station))
		s.publish(ctx, "patient.skipped", p)
	}
	return p, applied, err
}

func (s *Service) Pause(ctx context.Context, id uuid.UUID, reason string, notes *string, resumeDate *time.Time) (*QueuePatient, bool, error) {
	if reason == "" {
		return nil, false, fmt.Errorf("pause reason is required")
	}
	p, applied, err := s.repo.Pause(ctx, id, reason, notes, resumeDate)
	if applied {
		s.audit(ctx, "pause", fmt.Sprintf("paused %s: %s", p.TicketNumber, reason))
		s.publish(ctx, "patient.paused", p)
	}
	return p, applied, err
}

func (s *Service) Resume(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.Resume(ctx, id)
	if applied {
		s.audit(ctx, "resume", fmt.Sprintf("resumed %s at %s", p.TicketNumber, p.Station))
		s.publish(ctx, "patient.resumed", p)
	}
	return p, applied, err
}

func (s *Service) AddOrders(ctx context.Context, id uuid.UUID, types []OrderType, mode OrderMode) (*QueuePatient, bool, error) {
	if len(types) == 0 {
		return nil, false, fmt.Errorf("at least one order type is required")
	}
	if !mode.Valid() {
		return nil, false, fmt.Errorf("invalid order mode: %s", mode)
	}
	for _, t := range types {
		if _, ok := t.TargetStation(); !ok {
			return nil, false, fmt.Errorf("no target station configured for order type %q", t)
		}
	}

	p, applied, err := s.repo.AddOrders(ctx, id, types, mode)
	if applied {
		s.audit(ctx, "add-orders", fmt.Sprintf("added %d %s order(s) for %s", len(types), mode, p.TicketNumber))
		s.publish(ctx, "orders.added", p)
	}
	return p, applied, err
}

func (s *Service) StartOrder(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.StartOrder(ctx, id, orderID)
	if applied {
		s.audit(ctx, "start-order", fmt.Sprintf("started order %s for %s", orderID, p.TicketNumber))
		s.publish(ctx, "order.started", p)
	}
	return p, applied, err
}

func (s *Service) CompleteOrder(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.CompleteOrder(ctx, id, orderID)
	if applied {
		s.audit(ctx, "complete-order", fmt.Sprintf("completed order %s for %s", orderID, p.TicketNumber))
		s.publish(ctx, "order.completed", p)
	}
	return p, applied, err
}

func (s *Service) CompleteCurrentOrder(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.CompleteCurrentOrder(ctx, id)
	if applied {
		s.audit(ctx, "complete-current-order", fmt.Sprintf("advanced %s to %s", p.TicketNumber, p.Station))
		s.publish(ctx, "order.completed", p)
	}
	return p, applied, err
}

func (s *Service) DeferOrder(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.DeferOrder(ctx, id, orderID)
	if applied {
		s.audit(ctx, "defer-order", fmt.Sprintf("deferred order %s for %s", orderID, p.TicketNumber))
		s.publish(ctx, "order.deferred", p)
	}
	return p, applied, err
}

func (s *Service) CallNext(ctx context.Context, station Station, id *uuid.UUID) (*QueuePatient, bool, error) {
	if station != "" && !station.Valid() {
		return nil, false, fmt.Errorf("invalid station: %s", station)
	}
	p, applied, err := s.repo.CallNext(ctx, station, id)
	if applied {
		s.audit(ctx, "call-next", fmt.Sprintf("called %s at %s", p.TicketNumber, p.Station))
		s.publish(ctx, "patient.called", p)
	}
	return p, applied, err
}

func (s *Service) StartPatient(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	p, applied, err := s.repo.StartPatient(ctx, id)
	if applied {
		s.audit(ctx, "start", fmt.Sprintf("started session for %s", p.TicketNumber))
		s.publish(ctx, "patient.started", p)
	}
	return p, applied, err
}

func (s *Service) Stats(ctx context.Context) (*QueueStats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) audit(ctx context.Context, action, details string) {
	if s.rec == nil {
		return
	}
	actor := auth.UserIDFromContext(ctx)
	if actor == "" {
		actor = "system"
	}
	_ = s.rec.Record(ctx, audit.Event{
		Actor:   actor,
		Action:  action,
		Module:  auditModule,
		Details: details,
	})
}

func (s *Service) publish(ctx context.Context, eventType string, p *QueuePatient) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, websocket.Event{
		Type:       eventType,
		Topic:      websocket.TopicQueue,
		Resource:   "QueuePatient",
		ResourceID: p.ID.String(),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish queue event")
	}
}
