package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/tasks"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Processor holds dependencies and registered task handlers.
type Processor struct {
	RDB      *redis.Client
	Log      *logrus.Logger
	handlers map[string]TaskHandler
}

// NewProcessor creates a new worker processor.
func NewProcessor(rdb *redis.Client, log *logrus.Logger) *Processor {
	return &Processor{
		RDB:      rdb,
		Log:      log,
		handlers: make(map[string]TaskHandler),
	}
}

// Register maps a queue name (task type) to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	p.Log.WithField("queue", queueName).Info("Registered handler")
}

// Enqueue is a helper to add a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return p.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Dispatch runs the handler registered for queueName.
func (p *Processor) Dispatch(ctx context.Context, queueName, payload string) (err error) {
	handler, ok := p.handlers[queueName]
	if !ok {
		return fmt.Errorf("no handler registered for queue %s", queueName)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", queueName, r)
		}
	}()
	return handler(ctx, payload)
}

// Listen blocks on the given queues until ctx is cancelled.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	p.Log.WithField("queues", queueNames).Info("Worker listening")

	for {
		// BRPop blocks until a task is available on any of the listed queues.
		result, err := p.RDB.BRPop(ctx, 5*time.Second, queueNames...).Result()
		if ctx.Err() != nil {
			p.Log.Info("Worker stopped")
			return
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			p.Log.WithError(err).Error("Error popping from queue")
			time.Sleep(time.Second)
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		queueName, payload := result[0], result[1]
		log := p.Log.WithField("queue", queueName)
		log.Info("Received task")

		if err := p.Dispatch(ctx, queueName, payload); err != nil {
			// TODO: move poison payloads to a dead-letter list instead of dropping them
			log.WithError(err).Error("Error processing task")
		}
	}
}
