// Package store defines the persistence interface for the Quadro server.
package store

import (
	"context"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
)

// CardMove describes one move-card request. ToIndex is clamped into
// the destination ordering; ExpectedVersion must match the card's
// stored version or the move is rejected.
type CardMove struct {
	CardID          string
	ToListID        string
	ToIndex         int
	ExpectedVersion int64
}

// ListMove is the list-level analogue of CardMove.
type ListMove struct {
	ListID          string
	ToIndex         int
	ExpectedVersion int64
}

// OutboxInsert is an outbox row written inside the same transaction
// as the change it describes.
type OutboxInsert struct {
	EventType domain.WebhookEventType
	Payload   []byte
}

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteAllUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Profiles
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	SaveProfile(ctx context.Context, profile *domain.Profile) error
	ListProfiles(ctx context.Context) ([]*domain.Profile, error)

	// Boards
	CreateBoard(ctx context.Context, board *domain.Board) error
	GetBoard(ctx context.Context, id string) (*domain.Board, error)
	GetBoardDetail(ctx context.Context, id string) (*domain.BoardDetail, error)
	UpdateBoard(ctx context.Context, board *domain.Board) error
	DeleteBoard(ctx context.Context, id string, outbox *OutboxInsert) error
	ListBoardsForUser(ctx context.Context, userID string) ([]*domain.Board, error)
	AddBoardMember(ctx context.Context, boardID, userID string) error
	RemoveBoardMember(ctx context.Context, boardID, userID string) error

	// Lists
	CreateList(ctx context.Context, list *domain.List) error
	GetList(ctx context.Context, id string) (*domain.List, error)
	UpdateList(ctx context.Context, list *domain.List) error
	DeleteList(ctx context.Context, id string) error
	ListsForBoard(ctx context.Context, boardID string) ([]*domain.List, error)
	MoveList(ctx context.Context, actorID string, move ListMove) (*domain.List, error)

	// Labels
	CreateLabel(ctx context.Context, label *domain.Label) error
	GetLabel(ctx context.Context, id string) (*domain.Label, error)
	DeleteLabel(ctx context.Context, id string) error
	ListLabelsForBoard(ctx context.Context, boardID string) ([]*domain.Label, error)
	AddCardLabel(ctx context.Context, cardID, labelID string, activity *domain.Activity, outbox *OutboxInsert) error
	RemoveCardLabel(ctx context.Context, cardID, labelID string, activity *domain.Activity, outbox *OutboxInsert) error

	// Cards
	CreateCard(ctx context.Context, card *domain.Card, activity *domain.Activity, outbox *OutboxInsert) error
	GetCard(ctx context.Context, id string) (*domain.Card, error)
	UpdateCard(ctx context.Context, card *domain.Card, activity *domain.Activity, outbox *OutboxInsert) error
	DeleteCard(ctx context.Context, id string, activity *domain.Activity, outbox *OutboxInsert) error
	CardsForList(ctx context.Context, listID string) ([]*domain.Card, error)
	MoveCard(ctx context.Context, actorID string, move CardMove) (*domain.Card, error)
	AddCardMember(ctx context.Context, cardID, userID string) error
	RemoveCardMember(ctx context.Context, cardID, userID string) error

	// Comments
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	CommentsForCard(ctx context.Context, cardID string) ([]*domain.Comment, error)

	// Activities
	CreateActivity(ctx context.Context, activity *domain.Activity) error
	ActivitiesForBoard(ctx context.Context, boardID string, params PaginationParams) (*PaginatedResult[*domain.Activity], error)

	// Attachments
	CreateAttachment(ctx context.Context, attachment *domain.Attachment) error
	GetAttachment(ctx context.Context, id string) (*domain.Attachment, error)
	GetAttachmentByChecksum(ctx context.Context, cardID, checksum string) (*domain.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
	AttachmentsForCard(ctx context.Context, cardID string) ([]*domain.Attachment, error)

	// Events
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	UpdateEvent(ctx context.Context, event *domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, from, to time.Time) ([]*domain.Event, error)

	// Equipment
	CreateEquipment(ctx context.Context, item *domain.Equipment) error
	GetEquipment(ctx context.Context, id string) (*domain.Equipment, error)
	UpdateEquipment(ctx context.Context, item *domain.Equipment) error
	DeleteEquipment(ctx context.Context, id string) error
	ListEquipment(ctx context.Context) ([]*domain.Equipment, error)
	CheckoutEquipment(ctx context.Context, loan *domain.EquipmentLoan) error
	ReturnEquipment(ctx context.Context, equipmentID string, returnedAt time.Time) (*domain.EquipmentLoan, error)
	LoansForEquipment(ctx context.Context, equipmentID string) ([]*domain.EquipmentLoan, error)
	OpenLoans(ctx context.Context) ([]*domain.EquipmentLoan, error)

	// Reports
	CreateReport(ctx context.Context, report *domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	GetReportByExternalID(ctx context.Context, externalID string) (*domain.Report, error)
	DeleteReport(ctx context.Context, id string) error
	ListReports(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Report], error)

	// Webhook subscriptions
	CreateWebhookSubscription(ctx context.Context, sub *domain.WebhookSubscription) error
	GetWebhookSubscription(ctx context.Context, id string) (*domain.WebhookSubscription, error)
	UpdateWebhookSubscription(ctx context.Context, sub *domain.WebhookSubscription) error
	DeleteWebhookSubscription(ctx context.Context, id string) error
	ListWebhookSubscriptions(ctx context.Context) ([]*domain.WebhookSubscription, error)

	// Outbox
	PendingOutboxEvents(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error)
	MarkOutboxDelivered(ctx context.Context, id string, at time.Time) error
	MarkOutboxFailed(ctx context.Context, id string, attempts int, nextAttempt time.Time, dead bool) error
}

// SearchIndexer receives entity changes for async full-text indexing.
// The store calls it after successful writes; implementations must
// not block.
type SearchIndexer interface {
	IndexBoard(board *domain.Board)
	IndexCard(card *domain.Card)
	IndexEvent(event *domain.Event)
	Remove(id string)
}

// EventEmitter is the interface for emitting SSE events.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter discards all events. Useful for tests and tooling that
// run without connected clients.
type NoopEmitter struct{}

func (NoopEmitter) Emit(event any) {}

// NewNoopEmitter returns an emitter that does nothing.
func NewNoopEmitter() EventEmitter { return NoopEmitter{} }
