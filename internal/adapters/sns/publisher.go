// Package sns publishes schedule change notifications to an SNS topic.
package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

// API is the subset of the SNS client the publisher uses.
type API interface {
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// Publisher implements secondary.EventPublisher.
type Publisher struct {
	api      API
	topicARN string
}

// NewPublisher creates a publisher for topicARN.
func NewPublisher(api API, topicARN string) *Publisher {
	return &Publisher{api: api, topicARN: topicARN}
}

// Publish sends the event as JSON with its type as the eventType message
// attribute, which subscribers filter on.
func (p *Publisher) Publish(ctx context.Context, event secondary.ScheduleUpdatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.EventType, err)
	}

	_, err = p.api.Publish(ctx, &awssns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(event.EventType)},
		},
	})
	if err != nil {
		return classify(fmt.Sprintf("publish %s for %s", event.EventType, event.PersonID), err)
	}
	return nil
}

// classify marks throttling and server-side faults as transient.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return schedule.TransientError{Op: op, Err: err}
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.ErrorCode() == "Throttling" || apiErr.ErrorCode() == "ThrottledException":
			return schedule.TransientError{Op: op, Err: err}
		case apiErr.ErrorFault() == smithy.FaultServer:
			return schedule.TransientError{Op: op, Err: err}
		default:
			return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ secondary.EventPublisher = (*Publisher)(nil)
