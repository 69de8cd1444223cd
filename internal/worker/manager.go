package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ripplr_backend/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start begins the worker goroutines. Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	// Ensure consumer group exists before any worker reads
	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		consumerName := fmt.Sprintf("worker-%d", i)
		go m.runWorker(consumerName)
	}

	log.Printf("[Worker] Manager started: workers=%d batch=%d block=%v",
		m.workerCount, m.batchSize, m.blockTime)
	return nil
}

// Stop cancels the workers and waits for them to drain.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	log.Println("[Worker] Manager stopped")
}

// runWorker is the read-handle-ack loop for one consumer.
func (m *Manager) runWorker(consumerName string) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		messages, err := m.consumer.Read(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed,
			consumerName, m.batchSize, m.blockTime)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			log.Printf("[Worker] %s read error: %v", consumerName, err)
			// Brief pause so a dead Redis doesn't spin the loop
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, msg := range messages {
			if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
				// Not acked: the message stays pending and can be reclaimed
				log.Printf("[Worker] %s handle error (left pending): id=%s err=%v", consumerName, msg.ID, err)
				continue
			}

			if err := m.consumer.Ack(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed, msg.ID); err != nil {
				log.Printf("[Worker] %s ack error: id=%s err=%v", consumerName, msg.ID, err)
			}
		}
	}
}
