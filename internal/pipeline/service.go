package pipeline

import (
	"context"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
)

// Service feeds qa_passed items into the work queue.
type Service struct {
	feed  Feed
	queue *WorkQueue
}

func NewService(feed Feed, queue *WorkQueue) *Service {
	return &Service{feed: feed, queue: queue}
}

// Run enqueues every item entering qa_passed until ctx is done, then waits
// for the in-flight item to finish.
func (s *Service) Run(ctx context.Context) error {
	ctx = logger.SetComponent(ctx, "pipeline")
	logger.CtxInfo(ctx, "Pipeline started")

	for id := range s.feed.IDs(ctx, domain.StatusQAPassed) {
		s.queue.Enqueue(ctx, id)
	}

	s.queue.Wait()
	logger.CtxInfo(ctx, "Pipeline stopped")
	return nil
}

// Queue exposes the work queue for stats.
func (s *Service) Queue() *WorkQueue {
	return s.queue
}
