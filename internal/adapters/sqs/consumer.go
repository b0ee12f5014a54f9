// Package sqs consumes prisoner lifecycle events from an SQS queue.
package sqs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"github.com/example/plp/internal/ports/primary"
)

// API is the subset of the SQS client the consumer uses.
type API interface {
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *awssqs.ChangeMessageVisibilityInput, optFns ...func(*awssqs.Options)) (*awssqs.ChangeMessageVisibilityOutput, error)
}

// Options tunes the consumer.
type Options struct {
	Workers int
	// MaxMessages is the receive batch size, at most 10.
	MaxMessages int32
	// WaitTime is the long-poll duration, at most 20s.
	WaitTime time.Duration
	// RetryDelay is how long a message to be retried stays invisible. Zero
	// leaves the queue's visibility timeout in charge.
	RetryDelay time.Duration
	// ErrorBackoff is the pause after a failed receive.
	ErrorBackoff time.Duration
}

// Consumer polls the queue with a pool of workers and hands each message to
// the message service. Acknowledged messages are deleted; everything else is
// left for redelivery.
type Consumer struct {
	api      API
	queueURL string
	handler  primary.MessageService
	opts     Options
	logger   *slog.Logger
}

// NewConsumer creates a consumer for queueURL.
func NewConsumer(api API, queueURL string, handler primary.MessageService, opts Options, logger *slog.Logger) *Consumer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxMessages < 1 || opts.MaxMessages > 10 {
		opts.MaxMessages = 10
	}
	if opts.WaitTime <= 0 || opts.WaitTime > 20*time.Second {
		opts.WaitTime = 20 * time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 5 * time.Second
	}
	return &Consumer{api: api, queueURL: queueURL, handler: handler, opts: opts, logger: logger}
}

// Run polls until ctx is cancelled. Receive failures are logged and retried
// after a pause, so Run only returns once every worker has stopped.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer starting", "queue", c.queueURL, "workers", c.opts.Workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.opts.Workers; i++ {
		worker := i
		g.Go(func() error {
			return c.poll(ctx, worker)
		})
	}
	err := g.Wait()

	c.logger.Info("consumer stopped", "queue", c.queueURL)
	return err
}

func (c *Consumer) poll(ctx context.Context, worker int) error {
	logger := c.logger.With("worker", worker)
	for ctx.Err() == nil {
		out, err := c.api.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(c.queueURL),
			MaxNumberOfMessages:         c.opts.MaxMessages,
			WaitTimeSeconds:             int32(c.opts.WaitTime / time.Second),
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("receive failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.opts.ErrorBackoff):
			}
			continue
		}

		for _, msg := range out.Messages {
			c.handle(ctx, logger, msg)
		}
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, logger *slog.Logger, msg types.Message) {
	id := aws.ToString(msg.MessageId)
	count, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil {
		count = 1
	}

	disposition := c.handler.HandleMessage(ctx, primary.InboundMessage{ID: id, Body: aws.ToString(msg.Body), ReceiveCount: count})

	switch disposition {
	case primary.DispositionAck:
		if err := c.delete(ctx, msg); err != nil {
			// The message comes back and is handled again; handling is idempotent.
			logger.Warn("delete failed", "message_id", id, "error", err)
		}
	case primary.DispositionRetry:
		if c.opts.RetryDelay <= 0 {
			return
		}
		_, err := c.api.ChangeMessageVisibility(ctx, &awssqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(c.queueURL),
			ReceiptHandle:     msg.ReceiptHandle,
			VisibilityTimeout: int32(c.opts.RetryDelay / time.Second),
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("change visibility failed", "message_id", id, "error", err)
		}
	}
}

func (c *Consumer) delete(ctx context.Context, msg types.Message) error {
	_, err := c.api.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", aws.ToString(msg.MessageId), err)
	}
	return nil
}
