// Package memory implements the default in-process summary publisher. Local
// runs and tests keep site summaries in memory instead of pushing them to an
// external broker.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
)

// Delivery is one published site summary and the topic it was addressed to.
type Delivery struct {
	Topic   string
	Summary audit.SiteSummary
}

// Publisher records site summaries in publish order.
type Publisher struct {
	mu           sync.RWMutex
	defaultTopic string
	deliveries   []Delivery
}

// New returns a Publisher. Publishes that name no topic fall back to
// defaultTopic, mirroring the bound-topic behavior of the Pub/Sub backend.
func New(defaultTopic string) *Publisher {
	return &Publisher{defaultTopic: defaultTopic}
}

// Publish records the summary and returns a pseudo message ID.
func (p *Publisher) Publish(_ context.Context, topic string, summary audit.SiteSummary) (string, error) {
	if topic == "" {
		topic = p.defaultTopic
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliveries = append(p.deliveries, Delivery{Topic: topic, Summary: summary})
	return fmt.Sprintf("memory-%d", len(p.deliveries)), nil
}

// Summaries returns the recorded deliveries in publish order.
func (p *Publisher) Summaries() []Delivery {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Delivery, len(p.deliveries))
	copy(out, p.deliveries)
	return out
}

// SummaryFor returns the most recent summary published for a site.
func (p *Publisher) SummaryFor(siteID string) (audit.SiteSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := len(p.deliveries) - 1; i >= 0; i-- {
		if p.deliveries[i].Summary.SiteID == siteID {
			return p.deliveries[i].Summary, true
		}
	}
	return audit.SiteSummary{}, false
}
