package playback

import "sync"

// eventQueue delivers host callbacks on its own goroutine. Control operations
// hold the engine mutex while they transition state, so invoking callbacks
// inline would deadlock any host that calls back into the engine; posting to
// the queue decouples the two. Posting never blocks and preserves order.
type eventQueue struct {
	mu     sync.Mutex
	events []func()

	wake chan struct{}
	quit chan struct{}
	once sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *eventQueue) post(fn func()) {
	q.mu.Lock()
	q.events = append(q.events, fn)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) run() {
	for {
		select {
		case <-q.quit:
			return
		case <-q.wake:
		}
		for {
			q.mu.Lock()
			if len(q.events) == 0 {
				q.mu.Unlock()
				break
			}
			fn := q.events[0]
			q.events = q.events[1:]
			q.mu.Unlock()
			fn()
		}
	}
}

// close stops the dispatch goroutine; events still queued are dropped.
func (q *eventQueue) close() {
	q.once.Do(func() { close(q.quit) })
}
