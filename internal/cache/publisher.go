// internal/cache/publisher.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PublishHistoryRecord serializes the given record to JSON, then pushes it to the Redis queue.
func PublishHistoryRecord(ctx context.Context, rdb *redis.Client, queue string, record models.HistoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal HistoryRecord: %w", err)
	}
	if err := rdb.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queue, err)
	}
	return nil
}

// DefaultPublishBuffer is how many entries may wait for Redis before new ones are dropped.
const DefaultPublishBuffer = 256

const publishTimeout = 2 * time.Second

type pushFunc func(ctx context.Context, record models.HistoryRecord) error

// Publisher feeds the historian queue with every new ledger entry. A single worker pushes
// the entries in the order they were appended; failures are only logged.
type Publisher struct {
	push pushFunc
	log  *logrus.Entry

	mu      sync.RWMutex
	closed  bool
	records chan models.HistoryRecord
	done    chan struct{}
}

// NewPublisher starts the push worker for queue. Call Close to flush and stop it.
func NewPublisher(rdb *redis.Client, queue string, logger *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	push := func(ctx context.Context, record models.HistoryRecord) error {
		return PublishHistoryRecord(ctx, rdb, queue, record)
	}
	return newPublisher(push, DefaultPublishBuffer, logger.WithField("queue", queue))
}

func newPublisher(push pushFunc, buffer int, log *logrus.Entry) *Publisher {
	p := &Publisher{
		push:    push,
		log:     log.WithField("component", "publisher"),
		records: make(chan models.HistoryRecord, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishEntry implements game.EntrySink. It never blocks: when the buffer is full the
// entry is dropped with a warning.
func (p *Publisher) PublishEntry(gameID uuid.UUID, entry models.HistoryEntry) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.records <- models.HistoryRecord{GameID: gameID, Entry: entry}:
	default:
		p.log.WithField("game", gameID).Warn("publish buffer full, dropping history entry")
	}
}

// Close stops accepting entries and waits until the queued ones are pushed. Safe to call twice.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.records)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) run() {
	defer close(p.done)
	for record := range p.records {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.push(ctx, record)
		cancel()
		if err != nil {
			p.log.WithError(err).WithField("game", record.GameID).Warn("failed to publish history entry")
		}
	}
}
