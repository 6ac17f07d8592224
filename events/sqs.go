package events

import (
	"context"
	"fmt"
)

// QueueSender is satisfied by pkg/aws.SQSClient.
type QueueSender interface {
	Send(ctx context.Context, queueURL, eventType string, message []byte) error
}

type SQSPublisher struct {
	client   QueueSender
	queueURL string
}

func NewSQSPublisher(client QueueSender, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.client.Send(ctx, p.queueURL, event.Type, body)
}

func (p *SQSPublisher) Close() error { return nil }
