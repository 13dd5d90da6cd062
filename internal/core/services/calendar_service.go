package services

import (
	"context"
	"fmt"
	"time"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/ports"
	"aulanet/pkg/utils"

	"go.uber.org/zap"
)

// CreateEventInput is a create request: one slot plus optional weekly
// repetition by count or end date.
type CreateEventInput struct {
	StartTime    time.Time
	EndTime      time.Time
	Title        string
	Comment      string
	Participants []domain.EventParticipant
	RepeatWeekly bool
	RepeatCount  int
	RepeatUntil  *time.Time
}

// CalendarService books lesson slots: role composition and per-participant
// overlap checks, weekly repetition, and notification mail with
// per-recipient failure isolation.
type CalendarService struct {
	repo   ports.CalendarRepository
	users  ports.UserRepository
	mailer ports.Mailer
	logger *zap.SugaredLogger
}

func NewCalendarService(repo ports.CalendarRepository, users ports.UserRepository, mailer ports.Mailer, logger *zap.SugaredLogger) *CalendarService {
	return &CalendarService{repo: repo, users: users, mailer: mailer, logger: logger}
}

// CreateEvents validates every repetition up front, then commits each
// event independently. There is no rollback across repetitions: a
// persistence failure on repetition N leaves repetitions 1..N-1 created.
func (s *CalendarService) CreateEvents(ctx context.Context, in CreateEventInput) ([]*domain.CalendarEvent, error) {
	if !in.StartTime.Before(in.EndTime) {
		return nil, domain.ErrInvalidTimeRange
	}
	if err := checkRoles(in.Participants); err != nil {
		return nil, err
	}

	repetitions := 1
	if in.RepeatWeekly {
		switch {
		case in.RepeatCount > 0:
			repetitions = in.RepeatCount
		case in.RepeatUntil != nil:
			if !in.RepeatUntil.After(in.StartTime) {
				return nil, fmt.Errorf("repeat_until must be after start_time")
			}
			repetitions = int(in.RepeatUntil.Sub(in.StartTime)/(7*24*time.Hour)) + 1
		}
	}

	const week = 7 * 24 * time.Hour
	for i := 0; i < repetitions; i++ {
		start := in.StartTime.Add(time.Duration(i) * week)
		end := in.EndTime.Add(time.Duration(i) * week)
		for _, p := range in.Participants {
			overlap, err := s.repo.HasOverlap(ctx, p.UserID, start, end, 0)
			if err != nil {
				return nil, err
			}
			if overlap {
				return nil, fmt.Errorf("user %d has a conflicting event on repetition %d: %w",
					p.UserID, i+1, domain.ErrScheduleOverlap)
			}
		}
	}

	created := make([]*domain.CalendarEvent, 0, repetitions)
	for i := 0; i < repetitions; i++ {
		callKey, err := s.uniqueCallKey(ctx)
		if err != nil {
			return created, err
		}
		event := &domain.CalendarEvent{
			StartTime:    in.StartTime.Add(time.Duration(i) * week),
			EndTime:      in.EndTime.Add(time.Duration(i) * week),
			Title:        in.Title,
			Comment:      in.Comment,
			CallKey:      callKey,
			Status:       domain.EventBooked,
			Participants: in.Participants,
		}
		if err := s.repo.Create(ctx, event); err != nil {
			return created, err
		}
		created = append(created, event)
		s.notifyParticipants(ctx, event)
	}
	return created, nil
}

func checkRoles(participants []domain.EventParticipant) error {
	if len(participants) < 2 {
		return domain.ErrRoleComposition
	}
	var hasTeacher, hasStudent bool
	for _, p := range participants {
		switch p.Role {
		case domain.RoleTeacher:
			hasTeacher = true
		case domain.RoleStudent:
			hasStudent = true
		}
	}
	if !hasTeacher || !hasStudent {
		return domain.ErrRoleComposition
	}
	return nil
}

func (s *CalendarService) uniqueCallKey(ctx context.Context) (string, error) {
	for {
		key := utils.GenerateCallKey()
		exists, err := s.repo.CallKeyExists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
}

// notifyParticipants mails every participant about the new event. A
// failure for one recipient is logged and never aborts the rest.
func (s *CalendarService) notifyParticipants(ctx context.Context, event *domain.CalendarEvent) {
	if s.mailer == nil {
		return
	}
	duration := int(event.EndTime.Sub(event.StartTime).Minutes())
	for _, p := range event.Participants {
		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			s.logger.Warnw("skipping event notification, user lookup failed",
				"user_id", p.UserID, "error", err)
			continue
		}
		if user.Email == "" {
			s.logger.Warnw("skipping event notification, user has no email",
				"user_id", user.ID)
			continue
		}
		body := fmt.Sprintf(
			"<p>Hola %s,</p><p>Has sido agregado a un nuevo evento:</p><ul>"+
				"<li><strong>Título:</strong> %s</li>"+
				"<li><strong>Fecha:</strong> %s</li>"+
				"<li><strong>Duración:</strong> %d minutos</li>"+
				"<li><strong>Comentario:</strong> %s</li></ul><p>Saludos.</p>",
			user.Name, event.Title, event.StartTime.Format("02/01/2006 15:04"), duration, orNone(event.Comment))
		if err := s.mailer.Send(ctx, user.Email, user.Name, "Nuevo evento: "+event.Title, body); err != nil {
			s.logger.Errorw("event notification failed",
				"user_id", user.ID, "email", user.Email, "error", err)
		}
	}
}

func orNone(s string) string {
	if s == "" {
		return "Ninguno"
	}
	return s
}

func (s *CalendarService) Get(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CalendarService) List(ctx context.Context, user domain.UserID) ([]*domain.CalendarEvent, error) {
	if user != 0 {
		return s.repo.ListByUser(ctx, user)
	}
	return s.repo.List(ctx)
}

// Update changes title, comment and times. A time change re-runs the
// overlap check for every participant, excluding the event itself.
func (s *CalendarService) Update(ctx context.Context, id int64, start, end time.Time, title, comment string) (*domain.CalendarEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	timesChanged := !start.IsZero() && (!start.Equal(event.StartTime) || !end.Equal(event.EndTime))
	if timesChanged {
		if !start.Before(end) {
			return nil, domain.ErrInvalidTimeRange
		}
		for _, p := range event.Participants {
			overlap, err := s.repo.HasOverlap(ctx, p.UserID, start, end, id)
			if err != nil {
				return nil, err
			}
			if overlap {
				return nil, fmt.Errorf("user %d has a conflicting event: %w", p.UserID, domain.ErrScheduleOverlap)
			}
		}
		event.StartTime = start
		event.EndTime = end
	}
	if title != "" {
		event.Title = title
	}
	if comment != "" {
		event.Comment = comment
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *CalendarService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *CalendarService) AddParticipant(ctx context.Context, eventID int64, p domain.EventParticipant) error {
	if err := s.validateParticipantRole(p); err != nil {
		return err
	}
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	overlap, err := s.repo.HasOverlap(ctx, p.UserID, event.StartTime, event.EndTime, eventID)
	if err != nil {
		return err
	}
	if overlap {
		return fmt.Errorf("user %d has a conflicting event: %w", p.UserID, domain.ErrScheduleOverlap)
	}
	return s.repo.AddParticipant(ctx, eventID, p)
}

func (s *CalendarService) validateParticipantRole(p domain.EventParticipant) error {
	switch p.Role {
	case domain.RoleTeacher, domain.RoleStudent:
		return nil
	default:
		return fmt.Errorf("invalid role %q", p.Role)
	}
}

func (s *CalendarService) RemoveParticipant(ctx context.Context, eventID int64, user domain.UserID) error {
	return s.repo.RemoveParticipant(ctx, eventID, user)
}

func (s *CalendarService) Participants(ctx context.Context, eventID int64) ([]domain.EventParticipant, error) {
	return s.repo.ListParticipants(ctx, eventID)
}
