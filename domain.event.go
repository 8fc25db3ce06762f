package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Kinds of book change events.
const (
	EventBookCreated = "created"
	EventBookUpdated = "updated"
	EventBookDeleted = "deleted"

	DefaultEventsQueue = "libros:events"
)

// BookEvent records a successful write on the libros table.
type BookEvent struct {
	Seq  uint64    `json:"seq,omitempty"`
	Kind string    `json:"kind"`
	Book Book      `json:"book"`
	At   time.Time `json:"at"`
}

// EventPublisher announces book changes. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event BookEvent) error
}

// EventStore keeps the archived book events.
type EventStore interface {
	Append(ctx context.Context, event BookEvent) (uint64, error)
	List(ctx context.Context, limit int) ([]BookEvent, error)
}

var (
	_ EventPublisher = (*queuePublisher)(nil)
	_ EventPublisher = nopPublisher{}
)

type queuePublisher struct {
	logger *zap.Logger
	queue  Queuer
	qid    string
}

// NewQueuePublisher provides a publisher pushing events onto the queue qid.
func NewQueuePublisher(logger *zap.Logger, queue Queuer, qid string) EventPublisher {
	return &queuePublisher{logger: logger, queue: queue, qid: qid}
}

func (qp *queuePublisher) Publish(ctx context.Context, event BookEvent) error {
	return qp.queue.Push(ctx, qp.qid, event)
}

// nopPublisher is used when events are disabled.
type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, BookEvent) error { return nil }
