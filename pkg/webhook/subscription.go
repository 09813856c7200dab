package webhook

import (
	"github.com/zoff-tech/catalog-ingest/pkg/config"
	"github.com/zoff-tech/catalog-ingest/pkg/events"
)

// Subscription is a registered delivery target for one event kind. The
// dispatcher only ever reads subscriptions.
type Subscription struct {
	ID      string
	URL     string
	Event   events.Kind
	Enabled bool
}

// SubscriptionSource resolves the enabled subscriptions for an event kind.
type SubscriptionSource interface {
	Matching(kind events.Kind) []Subscription
}

// StaticSource serves subscriptions loaded from configuration.
type StaticSource struct {
	subscriptions []Subscription
}

func NewStaticSource(settings []config.SubscriptionSettings) (*StaticSource, error) {
	subscriptions := make([]Subscription, 0, len(settings))
	for _, s := range settings {
		kind, err := events.ParseKind(s.Event)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, Subscription{
			ID:      s.ID,
			URL:     s.URL,
			Event:   kind,
			Enabled: s.Enabled,
		})
	}
	return &StaticSource{subscriptions: subscriptions}, nil
}

func (s *StaticSource) Matching(kind events.Kind) []Subscription {
	var matches []Subscription
	for _, sub := range s.subscriptions {
		if sub.Enabled && sub.Event == kind {
			matches = append(matches, sub)
		}
	}
	return matches
}
