package domain

import (
	"sync"
	"time"
)

type ChangeKind string

const (
	ChangeKindSet     ChangeKind = "set"
	ChangeKindRemoved ChangeKind = "removed"
)

// Change is a hint that the value at Path was written. Watchers re-read the
// store on every hint, so a hint carries no data.
type Change struct {
	Path      string
	Kind      ChangeKind
	EventTime time.Time
}

// ChangeFeed provides per-path live subscriptions for the store.
type ChangeFeed interface {
	Publish(change Change)
	Watch(prefix string) <-chan Change
	Unwatch(ch <-chan Change)
}

// SimpleChangeFeed is an in-memory ChangeFeed.
//
// Publish never blocks. When a watcher's buffer is full the hint is
// dropped: the watcher still holds an unconsumed hint published after an
// earlier commit, and consuming it re-reads everything committed so far.
type SimpleChangeFeed struct {
	mu       sync.RWMutex
	watchers map[<-chan Change]watcher
}

type watcher struct {
	ch     chan Change
	prefix string
}

const watchBuffer = 64

func NewChangeFeed() *SimpleChangeFeed {
	return &SimpleChangeFeed{
		watchers: make(map[<-chan Change]watcher),
	}
}

func (f *SimpleChangeFeed) Publish(change Change) {
	if change.EventTime.IsZero() {
		change.EventTime = time.Now()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, w := range f.watchers {
		if !PathWithin(change.Path, w.prefix) {
			continue
		}
		select {
		case w.ch <- change:
		default:
			// Buffer full, a pending hint already covers this change
		}
	}
}

func (f *SimpleChangeFeed) Watch(prefix string) <-chan Change {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Change, watchBuffer)
	f.watchers[ch] = watcher{ch: ch, prefix: prefix}
	return ch
}

func (f *SimpleChangeFeed) Unwatch(ch <-chan Change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if w, ok := f.watchers[ch]; ok {
		close(w.ch)
		delete(f.watchers, ch)
	}
}
