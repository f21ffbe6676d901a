// Package pubsub implements a Google Cloud Pub/Sub summary publisher.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// Publisher emits site summaries to a Pub/Sub topic so downstream reporting
// can pick them up as sites finish, without waiting for the whole run.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New connects to Pub/Sub and binds the configured topic. Authentication
// uses Application Default Credentials.
func New(ctx context.Context, projectID, topicID string) (*Publisher, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{client: client, topic: client.Topic(topicID)}, nil
}

// Publish marshals the summary to JSON and publishes it. The topic argument
// overrides the bound topic when non-empty. The site ID and terminal state
// ride along as attributes so subscribers can filter without unmarshaling.
func (p *Publisher) Publish(ctx context.Context, topic string, summary audit.SiteSummary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	target := p.topic
	if topic != "" && topic != p.topic.ID() {
		target = p.client.Topic(topic)
	}
	result := target.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"site_id": summary.SiteID,
			"state":   string(summary.State),
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close stops the bound topic's goroutines and releases the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
