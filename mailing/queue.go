package mailing

import (
	"context"

	"github.com/zefparis/pub/tasks"
)

// Enqueuer pushes a task payload onto a named queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload interface{}) error
}

// QueueSyncer hands contact syncs to the worker instead of calling Brevo inline.
type QueueSyncer struct {
	Queue Enqueuer
}

func NewQueueSyncer(q Enqueuer) *QueueSyncer {
	return &QueueSyncer{Queue: q}
}

func (s *QueueSyncer) AddContact(ctx context.Context, email string) error {
	return s.Queue.Enqueue(ctx, tasks.QueueContactSync, tasks.ContactSyncPayload{Email: email})
}
