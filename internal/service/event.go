package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/sse"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// EventService manages agenda events ("pautas") and their recurrence
// expansion.
type EventService struct {
	store    store.Store
	events   store.EventEmitter
	validate *validation.Validator
	logger   *slog.Logger
}

// NewEventService creates a new event service.
func NewEventService(st store.Store, events store.EventEmitter, validate *validation.Validator, logger *slog.Logger) *EventService {
	return &EventService{
		store:    st,
		events:   events,
		validate: validate,
		logger:   logger,
	}
}

// EventRequest holds agenda event input, for create and full update.
type EventRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=300"`
	Description   string     `json:"description,omitempty" validate:"max=5000"`
	Location      string     `json:"location,omitempty" validate:"max=300"`
	StartsAt      time.Time  `json:"starts_at" validate:"required"`
	EndsAt        time.Time  `json:"ends_at" validate:"required"`
	Type          string     `json:"type,omitempty" validate:"omitempty,eventtype"`
	Status        string     `json:"status,omitempty" validate:"omitempty,eventstatus"`
	Priority      string     `json:"priority,omitempty" validate:"omitempty,priority"`
	Recurrence    string     `json:"recurrence,omitempty" validate:"omitempty,recurrence"`
	RepeatUntil   *time.Time `json:"repeat_until,omitempty"`
	ResponsibleID string     `json:"responsible_id,omitempty"`
	BoardID       string     `json:"board_id,omitempty"`
	AttendeeIDs   []string   `json:"attendee_ids,omitempty"`
}

// CreateEvent creates an agenda event.
func (s *EventService) CreateEvent(ctx context.Context, user *domain.User, req EventRequest) (*domain.Event, error) {
	event, err := s.buildEvent(user, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.events.Emit(sse.NewAgendaEvent(sse.EventAgendaCreated, event))
	s.logger.Info("agenda event created", "event_id", event.ID, "creator_id", user.ID)

	return event, nil
}

// GetEvent returns one agenda event.
func (s *EventService) GetEvent(ctx context.Context, user *domain.User, eventID string) (*domain.Event, error) {
	return s.store.GetEvent(ctx, eventID)
}

// UpdateEvent replaces a mutable event's fields. Creator, responsible
// party, or admin may edit.
func (s *EventService) UpdateEvent(ctx context.Context, user *domain.User, eventID string, req EventRequest) (*domain.Event, error) {
	existing, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !s.canModify(user, existing) {
		return nil, apperrors.Forbidden("only the creator or responsible party can edit this event")
	}

	updated, err := s.buildEvent(user, req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.CreatorID = existing.CreatorID

	if err := s.store.UpdateEvent(ctx, updated); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.events.Emit(sse.NewAgendaEvent(sse.EventAgendaUpdated, updated))
	return updated, nil
}

// DeleteEvent removes an agenda event.
func (s *EventService) DeleteEvent(ctx context.Context, user *domain.User, eventID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !s.canModify(user, event) {
		return apperrors.Forbidden("only the creator or responsible party can delete this event")
	}

	if err := s.store.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	s.events.Emit(sse.NewAgendaEvent(sse.EventAgendaDeleted, event))
	return nil
}

// AgendaEntry is one expanded occurrence with its source event.
type AgendaEntry struct {
	Event    *domain.Event `json:"event"`
	StartsAt time.Time     `json:"starts_at"`
	EndsAt   time.Time     `json:"ends_at"`
}

// Agenda expands all events overlapping [from, to) into concrete
// occurrences, sorted by start time. This is the calendar view.
func (s *EventService) Agenda(ctx context.Context, user *domain.User, from, to time.Time) ([]AgendaEntry, error) {
	if !to.After(from) {
		return nil, apperrors.Validation("to must be after from")
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, apperrors.Validation("agenda window must be a year or less")
	}

	events, err := s.store.ListEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var entries []AgendaEntry
	for _, event := range events {
		for _, occ := range event.Occurrences(from, to) {
			entries = append(entries, AgendaEntry{
				Event:    event,
				StartsAt: occ.StartsAt,
				EndsAt:   occ.EndsAt,
			})
		}
	}

	slices.SortFunc(entries, func(a, b AgendaEntry) int {
		return a.StartsAt.Compare(b.StartsAt)
	})
	return entries, nil
}

func (s *EventService) canModify(user *domain.User, event *domain.Event) bool {
	return user.IsAdmin() || event.CreatorID == user.ID || event.ResponsibleID == user.ID
}

func (s *EventService) buildEvent(user *domain.User, req EventRequest) (*domain.Event, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, apperrors.Validation("ends_at must be after starts_at")
	}
	if req.RepeatUntil != nil && req.RepeatUntil.Before(req.StartsAt) {
		return nil, apperrors.Validation("repeat_until must not be before starts_at")
	}

	eventType := domain.EventType(req.Type)
	if eventType == "" {
		eventType = domain.EventTypePauta
	}
	status := domain.EventStatus(req.Status)
	if status == "" {
		status = domain.EventStatusPlanned
	}
	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	recurrence := domain.Recurrence(req.Recurrence)
	if recurrence == "" {
		recurrence = domain.RecurrenceNone
	}

	now := time.Now().UTC()
	return &domain.Event{
		ID:            id.MustGenerate("evt"),
		CreatedAt:     now,
		UpdatedAt:     now,
		StartsAt:      req.StartsAt.UTC(),
		EndsAt:        req.EndsAt.UTC(),
		RepeatUntil:   req.RepeatUntil,
		CreatorID:     user.ID,
		ResponsibleID: req.ResponsibleID,
		BoardID:       req.BoardID,
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Type:          eventType,
		Status:        status,
		Priority:      priority,
		Recurrence:    recurrence,
		AttendeeIDs:   req.AttendeeIDs,
	}, nil
}
