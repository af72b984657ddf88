package teleconsult

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

const auditModule = "teleconsult"

// Service drives the teleconsult session lifecycle and the doctor roster.
// Mutations are audited and broadcast to teleconsult subscribers.
type Service struct {
	repo   Repository
	rec    audit.Recorder
	events websocket.EventPublisher
	logger zerolog.Logger
}

func NewService(repo Repository, rec audit.Recorder, events websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, rec: rec, events: events, logger: logger}
}

func (s *Service) CreateSession(ctx context.Context, in NewSessionInput) (*Session, error) {
	if in.PatientName == "" {
		return nil, fmt.Errorf("patient name is required")
	}
	if in.Type == "" {
		in.Type = SessionNow
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("invalid session type: %s", in.Type)
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if in.Type == SessionLater && in.ScheduledTime == nil {
		return nil, fmt.Errorf("scheduled sessions require a scheduled time")
	}

	sess, err := s.repo.AddSession(ctx, in)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "create-session", fmt.Sprintf("queued %s session for %s", sess.Type, sess.PatientName))
	s.publish(ctx, "session.created", sess.ID)
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, bool, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, f SessionListFilter, limit, offset int) ([]*Session, int, error) {
	return s.repo.ListSessions(ctx, f, limit, offset)
}

func (s *Service) AssignDoctor(ctx context.Context, sessionID, doctorID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.AssignDoctor(ctx, sessionID, doctorID)
	if applied {
		s.audit(ctx, "assign-doctor", fmt.Sprintf("assigned %s to session for %s", sess.AssignedDoctorName, sess.PatientName))
		s.publish(ctx, "session.doctor-assigned", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) MarkConnecting(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.MarkConnecting(ctx, sessionID)
	if applied {
		s.audit(ctx, "mark-connecting", fmt.Sprintf("session for %s is connecting", sess.PatientName))
		s.publish(ctx, "session.connecting", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) StartSession(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.StartSession(ctx, sessionID)
	if err == nil && sess != nil && !applied && sess.AssignedDoctorID == nil {
		s.logger.Warn().
			Str("session_id", sessionID.String()).
			Msg("start requested for session with no assigned doctor")
	}
	if applied {
		s.audit(ctx, "start-session", fmt.Sprintf("started session for %s with %s", sess.PatientName, sess.AssignedDoctorName))
		s.publish(ctx, "session.started", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) BeginWrapUp(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.BeginWrapUp(ctx, sessionID)
	if applied {
		s.audit(ctx, "begin-wrap-up", fmt.Sprintf("session for %s entered wrap-up", sess.PatientName))
		s.publish(ctx, "session.wrap-up", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) EndSession(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.EndSession(ctx, sessionID)
	if applied {
		s.audit(ctx, "end-session", fmt.Sprintf("ended session for %s", sess.PatientName))
		s.publish(ctx, "session.ended", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) MarkNoShow(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.MarkNoShow(ctx, sessionID)
	if applied {
		s.audit(ctx, "no-show", fmt.Sprintf("marked session for %s as no-show", sess.PatientName))
		s.publish(ctx, "session.no-show", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) Cancel(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	sess, applied, err := s.repo.Cancel(ctx, sessionID)
	if applied {
		s.audit(ctx, "cancel-session", fmt.Sprintf("cancelled session for %s", sess.PatientName))
		s.publish(ctx, "session.cancelled", sess.ID)
	}
	return sess, applied, err
}

func (s *Service) AddDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("doctor name is required")
	}
	doc, err := s.repo.AddDoctor(ctx, d)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "add-doctor", fmt.Sprintf("added %s (%s) to the roster", doc.Name, doc.Specialty))
	return doc, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, bool, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

func (s *Service) CheckInDoctor(ctx context.Context, id uuid.UUID) (*Doctor, bool, error) {
	doc, applied, err := s.repo.CheckInDoctor(ctx, id)
	if applied {
		s.audit(ctx, "doctor-check-in", fmt.Sprintf("%s checked in", doc.Name))
		s.publish(ctx, "doctor.checked-in", doc.ID)
	}
	return doc, applied, err
}

func (s *Service) UpdateDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus, activity *string) (*Doctor, bool, error) {
	if !status.Valid() {
		return nil, false, fmt.Errorf("invalid doctor status: %s", status)
	}
	doc, applied, err := s.repo.UpdateDoctorStatus(ctx, id, status, activity)
	if applied {
		s.audit(ctx, "update-doctor-status", fmt.Sprintf("%s set to %s", doc.Name, doc.Status))
		s.publish(ctx, "doctor.status-changed", doc.ID)
	}
	return doc, applied, err
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
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

func (s *Service) publish(ctx context.Context, eventType string, id uuid.UUID) {
	if s.events == nil {
		return
	}
	resource := "Session"
	if eventType == "doctor.checked-in" || eventType == "doctor.status-changed" {
		resource = "Doctor"
	}
	err := s.events.Publish(ctx, websocket.Event{
		Type:       eventType,
		Topic:      websocket.TopicTeleconsult,
		Resource:   resource,
		ResourceID: id.String(),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish teleconsult event")
	}
}
