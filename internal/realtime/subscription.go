package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

// Snapshot is one delivery of a subscription. When Stale is set, Items is the last
// snapshot that loaded successfully and Err describes why it could not be refreshed.
type Snapshot[T any] struct {
	Items []T
	Seq   uint64
	Stale bool
	Err   error
	At    time.Time
}

// Subscription is a cancellable stream of snapshots. The Updates channel is closed
// once the subscription has stopped and released its listener.
type Subscription[T any] struct {
	updates chan Snapshot[T]
	done    chan struct{}
	cancel  context.CancelFunc
	once    sync.Once
}

// Updates yields snapshots in delivery order.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] {
	return s.updates
}

// Done is closed when the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Cancel stops the subscription and waits for it to release its resources.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

type loader[T any] func(ctx context.Context) ([]T, error)

func subscribe[T any](ctx context.Context, b *Broadcaster, name string, load loader[T], collections ...domain.Collection) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		updates: make(chan Snapshot[T]),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	listener := b.Listen(collections...)

	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		defer b.Remove(listener)

		var (
			seq  uint64
			last []T
		)
		emit := func(items []T, err error) bool {
			seq++
			snap := Snapshot[T]{Items: items, Seq: seq, Err: err, Stale: err != nil, At: time.Now().UTC()}
			select {
			case sub.updates <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}
		refresh := func() bool {
			items, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				b.logger.Warn().Err(err).Str("subscription", name).Msg("snapshot reload failed")
				return emit(last, domain.SubscriptionErr("live updates are temporarily unavailable", err))
			}
			last = items
			return emit(items, nil)
		}

		if !refresh() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.C():
				changed, transportErr := listener.Take()
				if transportErr != nil {
					if !emit(last, domain.SubscriptionErr("live updates are temporarily unavailable", transportErr)) {
						return
					}
				}
				if changed && !refresh() {
					return
				}
			}
		}
	}()

	return sub
}
