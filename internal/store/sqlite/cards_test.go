package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

func insertTestUser(t *testing.T, s *Store, id, email string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateUser(context.Background(), &domain.User{
		ID: id, CreatedAt: now, UpdatedAt: now,
		Email: email, PasswordHash: "x", DisplayName: id, Role: domain.RoleMember,
	})
	if err != nil {
		t.Fatalf("insert test user: %v", err)
	}
}

func insertTestBoard(t *testing.T, s *Store, id, ownerID string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateBoard(context.Background(), &domain.Board{
		ID: id, CreatedAt: now, UpdatedAt: now,
		OwnerID: ownerID, Title: "Board " + id, Visibility: domain.VisibilityPrivate,
	})
	if err != nil {
		t.Fatalf("insert test board: %v", err)
	}
}

func insertTestList(t *testing.T, s *Store, id, boardID string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateList(context.Background(), &domain.List{
		ID: id, CreatedAt: now, UpdatedAt: now,
		BoardID: boardID, Title: "List " + id,
	})
	if err != nil {
		t.Fatalf("insert test list: %v", err)
	}
}

func insertTestCard(t *testing.T, s *Store, id, listID string) *domain.Card {
	t.Helper()
	now := time.Now().UTC()
	card := &domain.Card{
		ID: id, CreatedAt: now, UpdatedAt: now,
		ListID: listID, Title: "Card " + id, Priority: domain.PriorityMedium,
	}
	if err := s.CreateCard(context.Background(), card, nil, nil); err != nil {
		t.Fatalf("insert test card: %v", err)
	}
	return card
}

// listPositions returns id->position for every card in a list.
func listPositions(t *testing.T, s *Store, listID string) map[string]int {
	t.Helper()
	cards, err := s.CardsForList(context.Background(), listID)
	if err != nil {
		t.Fatalf("cards for list: %v", err)
	}
	positions := make(map[string]int, len(cards))
	for _, card := range cards {
		positions[card.ID] = card.Position
	}
	return positions
}

func assertDense(t *testing.T, s *Store, listID string) {
	t.Helper()
	cards, err := s.CardsForList(context.Background(), listID)
	if err != nil {
		t.Fatalf("cards for list: %v", err)
	}
	for i, card := range cards {
		if card.Position != i {
			t.Errorf("list %s: card %s at position %d, want %d", listID, card.ID, card.Position, i)
		}
	}
}

func setupBoard(t *testing.T, s *Store) {
	t.Helper()
	insertTestUser(t, s, "usr-1", "one@example.com")
	insertTestBoard(t, s, "brd-1", "usr-1")
	insertTestList(t, s, "lst-a", "brd-1")
	insertTestList(t, s, "lst-b", "brd-1")
	for _, id := range []string{"crd-1", "crd-2", "crd-3"} {
		insertTestCard(t, s, id, "lst-a")
	}
}

func TestCreateCardAppendsAtEnd(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)

	positions := listPositions(t, s, "lst-a")
	for i, id := range []string{"crd-1", "crd-2", "crd-3"} {
		if positions[id] != i {
			t.Errorf("card %s at position %d, want %d", id, positions[id], i)
		}
	}
}

func TestMoveCardSameList(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()

	moved, err := s.MoveCard(ctx, "usr-1", store.CardMove{
		CardID: "crd-3", ToListID: "lst-a", ToIndex: 0, ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("move card: %v", err)
	}
	if moved.Position != 0 {
		t.Errorf("moved card at position %d, want 0", moved.Position)
	}
	if moved.Version != 2 {
		t.Errorf("moved card version %d, want 2", moved.Version)
	}
	assertDense(t, s, "lst-a")

	positions := listPositions(t, s, "lst-a")
	if positions["crd-1"] != 1 || positions["crd-2"] != 2 {
		t.Errorf("unexpected order after move: %v", positions)
	}
}

func TestMoveCardCrossList(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()
	insertTestCard(t, s, "crd-4", "lst-b")

	moved, err := s.MoveCard(ctx, "usr-1", store.CardMove{
		CardID: "crd-2", ToListID: "lst-b", ToIndex: 0, ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("move card: %v", err)
	}
	if moved.ListID != "lst-b" {
		t.Errorf("card in list %s, want lst-b", moved.ListID)
	}
	if moved.Position != 0 {
		t.Errorf("card at position %d, want 0", moved.Position)
	}
	assertDense(t, s, "lst-a")
	assertDense(t, s, "lst-b")
}

func TestMoveCardClampsIndex(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)

	moved, err := s.MoveCard(context.Background(), "usr-1", store.CardMove{
		CardID: "crd-1", ToListID: "lst-a", ToIndex: 99, ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("move card: %v", err)
	}
	if moved.Position != 2 {
		t.Errorf("card at position %d, want 2 (clamped to end)", moved.Position)
	}
	assertDense(t, s, "lst-a")
}

func TestMoveCardStaleVersionLeavesStateUnchanged(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()

	before := listPositions(t, s, "lst-a")

	_, err := s.MoveCard(ctx, "usr-1", store.CardMove{
		CardID: "crd-3", ToListID: "lst-a", ToIndex: 0, ExpectedVersion: 7,
	})
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	after := listPositions(t, s, "lst-a")
	for id, pos := range before {
		if after[id] != pos {
			t.Errorf("card %s moved from %d to %d after rejected move", id, pos, after[id])
		}
	}

	card, err := s.GetCard(ctx, "crd-3")
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if card.Version != 1 {
		t.Errorf("version bumped to %d by rejected move", card.Version)
	}
}

func TestMoveCardConcurrentMoversOneWins(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.MoveCard(ctx, "usr-1", store.CardMove{
				CardID: "crd-1", ToListID: "lst-b", ToIndex: 0, ExpectedVersion: 1,
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("got %d wins and %d conflicts, want exactly one of each", wins, conflicts)
	}
	assertDense(t, s, "lst-a")
	assertDense(t, s, "lst-b")
}

func TestMoveCardWritesActivityAndOutbox(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()

	_, err := s.MoveCard(ctx, "usr-1", store.CardMove{
		CardID: "crd-1", ToListID: "lst-b", ToIndex: 0, ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("move card: %v", err)
	}

	feed, err := s.ActivitiesForBoard(ctx, "brd-1", store.DefaultPaginationParams())
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("got %d activities, want 1", len(feed.Items))
	}
	if feed.Items[0].Type != domain.ActivityCardMoved {
		t.Errorf("activity type %s, want %s", feed.Items[0].Type, domain.ActivityCardMoved)
	}

	pending, err := s.PendingOutboxEvents(ctx, time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("pending outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d outbox rows, want 1", len(pending))
	}
	if pending[0].EventType != domain.WebhookCardMoved {
		t.Errorf("outbox event type %s, want %s", pending[0].EventType, domain.WebhookCardMoved)
	}
	if pending[0].IdempotencyKey == "" {
		t.Error("outbox row missing idempotency key")
	}
}

func TestDeleteCardRenumbers(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)

	if err := s.DeleteCard(context.Background(), "crd-2", nil, nil); err != nil {
		t.Fatalf("delete card: %v", err)
	}
	assertDense(t, s, "lst-a")
	positions := listPositions(t, s, "lst-a")
	if positions["crd-1"] != 0 || positions["crd-3"] != 1 {
		t.Errorf("unexpected positions after delete: %v", positions)
	}
}

func TestDeleteBoardCascades(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID: "cmt-1", CreatedAt: now, UpdatedAt: now,
		CardID: "crd-1", AuthorID: "usr-1", Body: "hello",
	}
	if err := s.CreateComment(ctx, comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	err := s.DeleteBoard(ctx, "brd-1", &store.OutboxInsert{
		EventType: domain.WebhookBoardDeleted,
		Payload:   []byte(`{"board_id":"brd-1"}`),
	})
	if err != nil {
		t.Fatalf("delete board: %v", err)
	}

	if _, err := s.GetBoard(ctx, "brd-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("board still readable after delete: %v", err)
	}
	if _, err := s.GetList(ctx, "lst-a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("list survived board delete: %v", err)
	}
	if _, err := s.GetCard(ctx, "crd-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("card survived board delete: %v", err)
	}
	if _, err := s.GetComment(ctx, "cmt-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("comment survived board delete: %v", err)
	}

	pending, err := s.PendingOutboxEvents(ctx, time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("pending outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != domain.WebhookBoardDeleted {
		t.Errorf("expected one board_deleted outbox row, got %v", pending)
	}
}

func TestDeleteBoardCascadesOnFreshConnection(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	ctx := context.Background()

	// Check out the connection that ran the setup writes so the delete
	// has to run on a connection the pool opens fresh.
	pinned, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	defer pinned.Close()

	err = s.DeleteBoard(ctx, "brd-1", &store.OutboxInsert{
		EventType: domain.WebhookBoardDeleted,
		Payload:   []byte(`{"board_id":"brd-1"}`),
	})
	if err != nil {
		t.Fatalf("delete board: %v", err)
	}

	if _, err := s.GetList(ctx, "lst-a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("list survived board delete: %v", err)
	}
	if _, err := s.GetCard(ctx, "crd-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("card survived board delete: %v", err)
	}
}

func TestMoveListReorders(t *testing.T) {
	s := newTestStore(t)
	setupBoard(t, s)
	insertTestList(t, s, "lst-c", "brd-1")
	ctx := context.Background()

	moved, err := s.MoveList(ctx, "usr-1", store.ListMove{
		ListID: "lst-c", ToIndex: 0, ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("move list: %v", err)
	}
	if moved.Position != 0 {
		t.Errorf("list at position %d, want 0", moved.Position)
	}

	lists, err := s.ListsForBoard(ctx, "brd-1")
	if err != nil {
		t.Fatalf("lists for board: %v", err)
	}
	for i, list := range lists {
		if list.Position != i {
			t.Errorf("list %s at position %d, want %d", list.ID, list.Position, i)
		}
	}

	_, err = s.MoveList(ctx, "usr-1", store.ListMove{
		ListID: "lst-c", ToIndex: 1, ExpectedVersion: 1,
	})
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Errorf("expected version conflict on stale list move, got %v", err)
	}
}
