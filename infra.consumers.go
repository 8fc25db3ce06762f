package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// eventsArchiver moves book events from the queue into the event store.
type eventsArchiver struct {
	logger *zap.Logger
	queue  Queuer
	store  EventStore
}

func NewEventsArchiver(logger *zap.Logger, q Queuer, store EventStore) Consumer {
	return &eventsArchiver{logger, q, store}
}

// Consume runs until ctx is done. Faulty events are logged and dropped.
func (ea *eventsArchiver) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, event, err := ea.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			ea.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if errors.Is(err, ErrQueueEmpty) {
			continue
		}

		if err != nil {
			ea.logger.Error("consumer: error on queue pop call", zap.String("qid", qid), zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(popTimeout):
			}
			continue
		}

		switch event.Kind {
		case EventBookCreated, EventBookUpdated, EventBookDeleted:
			seq, err := ea.store.Append(ctx, event)
			if err != nil {
				ea.logger.Error("consumer: failed to archive event", zap.Any("event", event), zap.Error(err))
				continue
			}
			ea.logger.Debug("consumer: event archived", zap.Uint64("event.seq", seq), zap.String("event.kind", event.Kind))
		default:
			ea.logger.Warn("consumer: received unknown event kind", zap.String("qid", qid), zap.Any("event", event))
		}
	}
}
