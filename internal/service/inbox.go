package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/repository"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

// InboxStore holds each participant's mirrors of their conversations.
type InboxStore struct {
	repo   repository.MirrorRepository
	feed   domain.ChangeFeed
	logger zerolog.Logger

	retryInterval time.Duration
}

func NewInboxStore(repo repository.MirrorRepository, feed domain.ChangeFeed, logger zerolog.Logger) *InboxStore {
	return &InboxStore{
		repo:          repo,
		feed:          feed,
		logger:        logger,
		retryInterval: defaultRetryInterval,
	}
}

// Get returns nil when the owner has no mirror for the conversation.
func (s *InboxStore) Get(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) (*domain.Mirror, error) {
	if owner == "" || conversationID == "" {
		return nil, appErrors.ErrMissingIdentity
	}
	return s.repo.Get(ctx, owner, conversationID)
}

// Upsert replaces the whole row. The store stamps UpdatedAt.
func (s *InboxStore) Upsert(ctx context.Context, mirror *domain.Mirror) error {
	if mirror == nil || mirror.OwnerID == "" || mirror.PeerID == "" || mirror.ConversationID == "" {
		return appErrors.ErrMissingIdentity
	}
	if mirror.OwnerID == mirror.PeerID {
		return appErrors.ErrInvalidIdentity
	}
	return s.repo.Upsert(ctx, mirror)
}

// Remove deletes the owner's row only. Removing an absent row succeeds.
func (s *InboxStore) Remove(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID) error {
	if owner == "" || conversationID == "" {
		return appErrors.ErrMissingIdentity
	}
	return s.repo.Delete(ctx, owner, conversationID)
}

// List returns the owner's mirrors, most recently active first.
func (s *InboxStore) List(ctx context.Context, owner domain.ParticipantID) ([]*domain.Mirror, error) {
	if owner == "" {
		return nil, appErrors.ErrMissingIdentity
	}
	return s.repo.ListByOwner(ctx, owner)
}

// SubscribeInbox delivers the owner's full mirror set, most recent first,
// now and after every change to any of them.
func (s *InboxStore) SubscribeInbox(ctx context.Context, owner domain.ParticipantID) *InboxStream {
	base, streamCtx := newStream(ctx)
	st := &InboxStream{stream: base, ch: make(chan []*domain.Mirror)}

	hints := s.feed.Watch(domain.InboxPath(owner))
	go s.follow(streamCtx, owner, st, hints)
	return st
}

func (s *InboxStore) follow(ctx context.Context, owner domain.ParticipantID, st *InboxStream, hints <-chan domain.Change) {
	defer close(st.done)
	defer close(st.ch)
	defer s.feed.Unwatch(hints)

	log := s.logger.With().Str("owner", owner.String()).Logger()

	var (
		pending []*domain.Mirror
		have    bool
		retry   <-chan time.Time
		fetch   = true
	)

	for {
		if fetch {
			fetch = false
			snapshot, err := s.repo.ListByOwner(ctx, owner)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("inbox stream read failed, retrying")
				retry = time.After(s.retryInterval)
			} else {
				// A newer snapshot replaces one the receiver has not taken yet.
				pending, have = snapshot, true
			}
		}

		var out chan []*domain.Mirror
		if have {
			out = st.ch
		}

		select {
		case <-ctx.Done():
			return
		case out <- pending:
			pending, have = nil, false
		case _, ok := <-hints:
			if !ok {
				return
			}
			fetch = true
		case <-retry:
			retry = nil
			fetch = true
		}
	}
}
