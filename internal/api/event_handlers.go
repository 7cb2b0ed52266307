package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createEvent",
		Method:      http.MethodPost,
		Path:        "/api/v1/events",
		Summary:     "Create agenda event",
		Tags:        []string{"Agenda"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEvent",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}",
		Summary:     "Get agenda event",
		Tags:        []string{"Agenda"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEvent",
		Method:      http.MethodPut,
		Path:        "/api/v1/events/{id}",
		Summary:     "Update agenda event",
		Description: "Full replace. Only the creator, the responsible user, or an admin may update an event.",
		Tags:        []string{"Agenda"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEvent",
		Method:      http.MethodDelete,
		Path:        "/api/v1/events/{id}",
		Summary:     "Delete agenda event",
		Tags:        []string{"Agenda"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAgenda",
		Method:      http.MethodGet,
		Path:        "/api/v1/agenda",
		Summary:     "Agenda view",
		Description: "Expands recurring events into concrete occurrences within [from, to), sorted by start time",
		Tags:        []string{"Agenda"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAgenda)
}

// === DTOs ===

// EventInput wraps the event request for Huma.
type EventInput struct {
	Authorization string `header:"Authorization"`
	Body          service.EventRequest
}

// EventIDInput identifies an agenda event.
type EventIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
}

// UpdateEventInput wraps an event update for Huma.
type UpdateEventInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
	Body          service.EventRequest
}

// EventOutput wraps an agenda event for Huma.
type EventOutput struct {
	Body *domain.Event
}

// AgendaInput carries the agenda window.
type AgendaInput struct {
	Authorization string    `header:"Authorization"`
	From          time.Time `query:"from" required:"true" doc:"Window start (inclusive, RFC 3339)"`
	To            time.Time `query:"to" required:"true" doc:"Window end (exclusive, RFC 3339)"`
}

// AgendaOutput wraps the expanded agenda for Huma.
type AgendaOutput struct {
	Body struct {
		Entries []service.AgendaEntry `json:"entries" doc:"Occurrences sorted by start time"`
	}
}

// === Handlers ===

func (s *Server) handleCreateEvent(ctx context.Context, input *EventInput) (*EventOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	event, err := s.services.Event.CreateEvent(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

func (s *Server) handleGetEvent(ctx context.Context, input *EventIDInput) (*EventOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	event, err := s.services.Event.GetEvent(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

func (s *Server) handleUpdateEvent(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	event, err := s.services.Event.UpdateEvent(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

func (s *Server) handleDeleteEvent(ctx context.Context, input *EventIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Event.DeleteEvent(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Event deleted"}}, nil
}

func (s *Server) handleAgenda(ctx context.Context, input *AgendaInput) (*AgendaOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Event.Agenda(ctx, user, input.From, input.To)
	if err != nil {
		return nil, err
	}

	out := &AgendaOutput{}
	out.Body.Entries = entries
	return out, nil
}
