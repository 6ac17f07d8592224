package events

import (
	"context"
	"fmt"
)

// TopicPublisher is satisfied by pkg/aws.SNSClient.
type TopicPublisher interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

type SNSPublisher struct {
	client   TopicPublisher
	topicArn string
}

func NewSNSPublisher(client TopicPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, event.Type, body)
}

func (p *SNSPublisher) Close() error { return nil }
