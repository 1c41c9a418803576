// internal/persist/persister.go
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultQueueSize   = 64
	defaultSaveTimeout = 5 * time.Second
)

type saveJob struct {
	state   game.State
	history []models.HistoryEntry
	clear   uuid.UUID // when set, the job removes this game's records instead
}

// Persister writes game snapshots to a Store from a single background worker, so saves
// land in the order they were made. Save never blocks the caller: when the queue is full
// the snapshot is dropped with a warning, and the next accepted change writes a newer one.
type Persister struct {
	store Store
	log   *logrus.Entry

	mu     sync.RWMutex
	closed bool
	queue  chan saveJob
	done   chan struct{}

	timeout time.Duration
}

// NewPersister starts the save worker. Call Close to flush and stop it.
func NewPersister(store Store, logger *logrus.Logger, queueSize int) *Persister {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Persister{
		store:   store,
		log:     logger.WithField("component", "persister"),
		queue:   make(chan saveJob, queueSize),
		done:    make(chan struct{}),
		timeout: defaultSaveTimeout,
	}
	go p.run()
	return p
}

// Save queues both records of a game for writing.
func (p *Persister) Save(state game.State, history []models.HistoryEntry) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- saveJob{state: state, history: history}:
	default:
		p.log.WithField("game", state.ID).Warn("save queue full, dropping snapshot")
	}
}

// Clear queues removal of both records of a game behind any saves already queued, so a
// pending save cannot bring a cleared game back. Unlike Save it waits for queue space.
func (p *Persister) Clear(id uuid.UUID) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.queue <- saveJob{clear: id}
}

// Close stops accepting saves and waits until queued ones are written.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

func (p *Persister) run() {
	defer close(p.done)
	for job := range p.queue {
		p.write(job)
	}
}

// write stores the two records independently; a failure on one does not skip the other.
func (p *Persister) write(job saveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if job.clear != uuid.Nil {
		if err := p.store.Clear(ctx, job.clear); err != nil {
			p.log.WithError(err).WithField("game", job.clear).Warn("failed to clear game records")
		}
		return
	}

	logger := p.log.WithField("game", job.state.ID)
	if err := p.store.SaveState(ctx, job.state); err != nil {
		logger.WithError(err).Warn("failed to save game state")
	}
	if err := p.store.SaveHistory(ctx, job.state.ID, job.history); err != nil {
		logger.WithError(err).Warn("failed to save history")
	}
}
