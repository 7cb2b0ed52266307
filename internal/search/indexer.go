package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
)

// ListResolver resolves a card's board through its list. The sqlite
// store satisfies this.
type ListResolver interface {
	GetList(ctx context.Context, id string) (*domain.List, error)
}

type jobOp int

const (
	opIndexBoard jobOp = iota
	opIndexCard
	opIndexEvent
	opRemove
)

type job struct {
	board *domain.Board
	card  *domain.Card
	event *domain.Event
	id    string
	op    jobOp
}

// Indexer feeds entity changes into the search index asynchronously.
// The store calls its methods after successful writes; they enqueue
// and return immediately, dropping work with a warning if the queue
// is full rather than blocking a write path.
type Indexer struct {
	index    *Index
	resolver ListResolver
	logger   *slog.Logger
	jobs     chan job
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewIndexer creates an indexer. Call Start before handing it to the
// store and Stop during shutdown.
func NewIndexer(index *Index, resolver ListResolver, logger *slog.Logger) *Indexer {
	return &Indexer{
		index:    index,
		resolver: resolver,
		logger:   logger,
		jobs:     make(chan job, 256),
		done:     make(chan struct{}),
	}
}

// Start launches the background worker.
func (i *Indexer) Start() {
	i.wg.Add(1)
	go i.run()
}

// Stop drains queued work and stops the worker.
func (i *Indexer) Stop() {
	i.once.Do(func() {
		close(i.done)
	})
	i.wg.Wait()
}

// IndexBoard enqueues a board for indexing.
func (i *Indexer) IndexBoard(board *domain.Board) {
	i.enqueue(job{op: opIndexBoard, board: board})
}

// IndexCard enqueues a card for indexing.
func (i *Indexer) IndexCard(card *domain.Card) {
	i.enqueue(job{op: opIndexCard, card: card})
}

// IndexEvent enqueues an event for indexing.
func (i *Indexer) IndexEvent(event *domain.Event) {
	i.enqueue(job{op: opIndexEvent, event: event})
}

// Remove enqueues removal of a document by entity ID.
func (i *Indexer) Remove(id string) {
	i.enqueue(job{op: opRemove, id: id})
}

func (i *Indexer) enqueue(j job) {
	select {
	case i.jobs <- j:
	case <-i.done:
	default:
		i.logger.Warn("search index queue full, dropping update")
	}
}

func (i *Indexer) run() {
	defer i.wg.Done()
	for {
		select {
		case j := <-i.jobs:
			i.process(j)
		case <-i.done:
			// Drain what is already queued before exiting
			for {
				select {
				case j := <-i.jobs:
					i.process(j)
				default:
					return
				}
			}
		}
	}
}

func (i *Indexer) process(j job) {
	var err error
	switch j.op {
	case opIndexBoard:
		err = i.index.IndexDocument(BoardDocument(j.board))
	case opIndexCard:
		var doc *Document
		doc, err = i.cardDocument(j.card)
		if err == nil {
			err = i.index.IndexDocument(doc)
		}
	case opIndexEvent:
		err = i.index.IndexDocument(EventDocument(j.event))
	case opRemove:
		err = i.index.DeleteDocument(j.id)
	}
	if err != nil {
		i.logger.Warn("search index update failed", "error", err)
	}
}

func (i *Indexer) cardDocument(card *domain.Card) (*Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	list, err := i.resolver.GetList(ctx, card.ListID)
	if err != nil {
		return nil, err
	}
	return CardDocument(card, list.BoardID), nil
}
