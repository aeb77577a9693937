// Package broker hands a per-session event channel from its producer to the
// first consumer. The session engine publishes a channel of disclosure events
// when a session starts; an SSE handler subscribes to stream those events to
// the player. Subsequent subscribers block until the producer finishes, at
// which point they should fall back to the persisted session state instead.
package broker

type publication[TID comparable, TPayload any] struct {
	id      TID
	channel chan TPayload
}

type subscription[TID comparable, TPayload any] struct {
	id      TID
	channel chan chan TPayload
}

// Broker routes published channels to subscribers by id. All state lives in
// the goroutine started with Start, so the broker itself needs no locks.
type Broker[TID comparable, TPayload any] struct {
	stop      chan struct{}
	publish   chan publication[TID, TPayload]
	unpublish chan TID
	subscribe chan subscription[TID, TPayload]
}

// New creates a Broker. Call Start in a goroutine to begin routing and Stop
// to end it.
func New[TID comparable, TPayload any]() *Broker[TID, TPayload] {
	return &Broker[TID, TPayload]{
		stop:      make(chan struct{}),
		publish:   make(chan publication[TID, TPayload]),
		unpublish: make(chan TID),
		subscribe: make(chan subscription[TID, TPayload]),
	}
}

// Start routes publish, unpublish, and subscribe requests. It blocks until
// Stop is called, so run it in a goroutine.
func (b *Broker[TID, TPayload]) Start() {
	published := map[TID]chan TPayload{}
	subscribers := map[TID][]chan chan TPayload{}
	for {
		select {
		case <-b.stop:
			return

		case sub := <-b.subscribe:
			c := published[sub.id]
			if c == nil {
				// No producer: close immediately so the subscriber falls back
				// to persisted state.
				close(sub.channel)
				break
			}
			subs := subscribers[sub.id]
			if subs == nil {
				// The first subscriber gets the producer's channel.
				subscribers[sub.id] = []chan chan TPayload{sub.channel}
				sub.channel <- c
			} else {
				// Later subscribers wait until the producer unpublishes.
				subscribers[sub.id] = append(subs, sub.channel)
			}

		case pub := <-b.publish:
			published[pub.id] = pub.channel

		case id := <-b.unpublish:
			// Release waiting subscribers; their channels close without a payload.
			if subs := subscribers[id]; len(subs) > 1 {
				for _, waiting := range subs[1:] {
					close(waiting)
				}
			}
			delete(published, id)
			delete(subscribers, id)
		}
	}
}

// Stop ends the routing goroutine.
func (b *Broker[TID, TPayload]) Stop() {
	close(b.stop)
}

// Publish registers the producer's channel under id. The channel is handed to
// the first subscriber; the producer should use a buffered channel so that
// emitting events never blocks session operations when nobody is streaming.
func (b *Broker[TID, TPayload]) Publish(id TID, channel chan TPayload) {
	b.publish <- publication[TID, TPayload]{id: id, channel: channel}
}

// Unpublish removes the channel registered under id and releases any waiting
// subscribers. Producers call this when the session reaches a terminal state.
func (b *Broker[TID, TPayload]) Unpublish(id TID) {
	b.unpublish <- id
}

// Subscribe returns a channel that yields the producer's channel. If nothing
// is published under id, or another subscriber already holds the channel, the
// returned channel closes without a payload once the producer is done.
func (b *Broker[TID, TPayload]) Subscribe(id TID) chan chan TPayload {
	channel := make(chan chan TPayload, 1)
	b.subscribe <- subscription[TID, TPayload]{id: id, channel: channel}
	return channel
}
