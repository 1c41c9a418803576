// Package historian drains the history-entry queue into the audit table in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// BatchWriter persists a batch of queued entries atomically.
type BatchWriter interface {
	InsertHistoryBatch(ctx context.Context, records []models.HistoryRecord) error
}

// Service pops entries off a Redis list and flushes them when the batch is full or the
// flush interval elapses, whichever comes first.
type Service struct {
	rdb        *redis.Client
	writer     BatchWriter
	queue      string
	batchSize  int
	flushDelay time.Duration
	popTimeout time.Duration
	log        *logrus.Entry

	batchMu sync.Mutex
	batch   []models.HistoryRecord
}

// NewService constructs a Service. Non-positive sizes fall back to 20 entries / 500ms.
func NewService(rdb *redis.Client, writer BatchWriter, queue string, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		rdb:        rdb,
		writer:     writer,
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		popTimeout: 3 * time.Second,
		log:        logger.WithField("component", "historian"),
		batch:      make([]models.HistoryRecord, 0, batchSize),
	}
}

// Run blocks until ctx is done, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	s.log.WithField("queue", s.queue).Info("historian started")

	go s.flushLoop(ctx)
	s.readLoop(ctx)

	// ctx is already cancelled; give the last flush its own deadline
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian stopped")
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// readLoop uses BLPop with a timeout so that context cancellation is noticed.
func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := s.rdb.BLPop(ctx, s.popTimeout, s.queue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.log.WithError(err).Error("BLPop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload
		if len(res) < 2 {
			continue
		}
		s.Handle(ctx, []byte(res[1]))
	}
}

// Handle decodes one queued payload and adds it to the batch. Malformed payloads are dropped.
func (s *Service) Handle(ctx context.Context, payload []byte) {
	var rec models.HistoryRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		s.log.WithError(err).Warn("invalid history record")
		return
	}
	if !rec.Entry.Type.Valid() {
		s.log.WithField("type", rec.Entry.Type).Warn("invalid history record")
		return
	}
	if s.add(rec) {
		s.Flush(ctx)
	}
}

// add appends to the batch and reports whether it is now full.
func (s *Service) add(rec models.HistoryRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.batchSize
}

// Flush writes the pending batch in one transaction. On failure the records are put back
// in front of the batch so the next flush retries them.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := make([]models.HistoryRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.writer.InsertHistoryBatch(ctx, pending); err != nil {
		s.log.WithError(err).WithField("count", len(pending)).Error("failed to flush history batch")
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.log.WithField("count", len(pending)).Debug("flushed history batch")
}

// Pending returns the number of records waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
