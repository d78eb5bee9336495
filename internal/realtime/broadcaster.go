// Package realtime keeps subscribers supplied with current snapshots of the gift catalog
// and the contribution ledger.
//
// Change events reach a Broadcaster either directly from an in-process publisher or
// through the message broker. Each subscription owns one listener whose mailbox holds
// at most one pending signal: any number of changes that arrive while a subscriber is
// busy collapse into a single re-query.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
)

// Listener receives coalesced change notifications for a set of collections.
type Listener struct {
	notify      chan struct{}
	collections map[domain.Collection]struct{}

	mu      sync.Mutex
	changed bool
	err     error
}

// C is signalled when Take has something to report.
func (l *Listener) C() <-chan struct{} {
	return l.notify
}

// Take returns and clears the pending state.
func (l *Listener) Take() (changed bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed, err = l.changed, l.err
	l.changed, l.err = false, nil
	return changed, err
}

func (l *Listener) wants(collection domain.Collection) bool {
	_, ok := l.collections[collection]
	return ok
}

func (l *Listener) signal(changed bool, err error) {
	l.mu.Lock()
	if changed {
		l.changed = true
	}
	if err != nil {
		l.err = err
	}
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Broadcaster fans change events out to listeners without ever blocking the sender.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	logger    logging.Logger
}

func NewBroadcaster(logger logging.Logger) *Broadcaster {
	return &Broadcaster{
		listeners: map[*Listener]struct{}{},
		logger:    logging.Component(logger, "realtime"),
	}
}

// Listen registers a listener for the given collections. Callers must Remove it.
func (b *Broadcaster) Listen(collections ...domain.Collection) *Listener {
	l := &Listener{
		notify:      make(chan struct{}, 1),
		collections: make(map[domain.Collection]struct{}, len(collections)),
	}
	for _, c := range collections {
		l.collections[c] = struct{}{}
	}

	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Remove unregisters a listener. It is safe to call more than once.
func (b *Broadcaster) Remove(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
}

// Listeners returns the number of registered listeners.
func (b *Broadcaster) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Deliver notifies every listener interested in the event's collection.
func (b *Broadcaster) Deliver(evt domain.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.listeners {
		if l.wants(evt.Collection) {
			l.signal(true, nil)
		}
	}
}

// Fail reports a transport failure to every listener.
func (b *Broadcaster) Fail(err error) {
	if err == nil {
		return
	}
	b.logger.Warn().Err(err).Msg("change feed interrupted")

	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.listeners {
		l.signal(false, err)
	}
}

// HandleMessage decodes a broker delivery and feeds it to Deliver.
// Undecodable messages are dropped, since redelivery cannot fix them.
func (b *Broadcaster) HandleMessage(body []byte) bool {
	var evt domain.ChangeEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		b.logger.Error().Err(err).Msg("dropping malformed change event")
		return true
	}
	b.Deliver(evt)
	return true
}

// LocalPublisher delivers change events straight into a Broadcaster. It is used when
// no message broker is configured.
type LocalPublisher struct {
	broadcaster *Broadcaster
}

func NewLocalPublisher(b *Broadcaster) *LocalPublisher {
	return &LocalPublisher{broadcaster: b}
}

func (p *LocalPublisher) Publish(_ context.Context, _, _ string, body interface{}) error {
	evt, err := changeEventFrom(body)
	if err != nil {
		return fmt.Errorf("local publisher: %w", err)
	}
	p.broadcaster.Deliver(evt)
	return nil
}

func (p *LocalPublisher) Close() {}

// Publisher is the broker side of a RelayPublisher.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// RelayPublisher sends change events through the broker. When a publish fails the event
// is delivered to this process's listeners directly, and every listener is told the
// shared feed missed a change so its snapshot is reported stale.
type RelayPublisher struct {
	remote      Publisher
	broadcaster *Broadcaster
}

func NewRelayPublisher(remote Publisher, b *Broadcaster) *RelayPublisher {
	return &RelayPublisher{remote: remote, broadcaster: b}
}

func (p *RelayPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	err := p.remote.Publish(ctx, exchange, routingKey, body)
	if err == nil {
		return nil
	}
	p.broadcaster.Fail(fmt.Errorf("publish %s: %w", routingKey, err))
	if evt, decodeErr := changeEventFrom(body); decodeErr == nil {
		p.broadcaster.Deliver(evt)
	}
	return err
}

func changeEventFrom(body interface{}) (domain.ChangeEvent, error) {
	switch evt := body.(type) {
	case domain.ChangeEvent:
		return evt, nil
	case *domain.ChangeEvent:
		return *evt, nil
	default:
		return domain.ChangeEvent{}, fmt.Errorf("unsupported event type %T", body)
	}
}
