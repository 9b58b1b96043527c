package service

import (
	"context"
	"sync"
	"time"

	"github.com/needsclan/Gk1/internal/domain"
)

const (
	defaultPageSize      = 200
	defaultRetryInterval = time.Second
)

// stream is the cancelable handle shared by message and inbox streams.
type stream struct {
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newStream(parent context.Context) (*stream, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &stream{cancel: cancel, done: make(chan struct{})}, ctx
}

// Close stops further deliveries. A delivery already handed to the
// receiver is not taken back. Close is idempotent.
func (s *stream) Close() {
	s.closeOnce.Do(s.cancel)
}

// Done is closed once the stream goroutine has exited.
func (s *stream) Done() <-chan struct{} { return s.done }

// MessageStream delivers every message of a conversation at least once, in
// log order within one stream. Receivers deduplicate on MessageID.
type MessageStream struct {
	*stream
	ch chan *domain.Message
}

func (s *MessageStream) C() <-chan *domain.Message { return s.ch }

// InboxStream delivers full, recency-ordered snapshots of an owner's
// mirrors. A slow receiver only ever sees the latest snapshot.
type InboxStream struct {
	*stream
	ch chan []*domain.Mirror
}

func (s *InboxStream) C() <-chan []*domain.Mirror { return s.ch }
