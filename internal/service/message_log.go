package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/repository"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

// MessageLog is the append-only, per-conversation message collection.
type MessageLog struct {
	repo   repository.MessageRepository
	feed   domain.ChangeFeed
	logger zerolog.Logger

	pageSize      int
	retryInterval time.Duration
}

func NewMessageLog(repo repository.MessageRepository, feed domain.ChangeFeed, logger zerolog.Logger) *MessageLog {
	return &MessageLog{
		repo:          repo,
		feed:          feed,
		logger:        logger,
		pageSize:      defaultPageSize,
		retryInterval: defaultRetryInterval,
	}
}

// Append stores the trimmed text as a new message. The log assigns the
// message id and createdAt.
func (l *MessageLog) Append(ctx context.Context, conversationID domain.ConversationID, senderID domain.ParticipantID, text string) (*domain.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, appErrors.ErrEmptyMessage
	}
	if conversationID == "" || senderID == "" {
		return nil, appErrors.ErrMissingIdentity
	}

	msg := domain.NewTextMessage(conversationID, senderID, trimmed)
	if err := l.repo.Append(ctx, msg); err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("conversation", conversationID.String()).
		Str("message", string(msg.ID)).
		Msg("message appended")
	return msg, nil
}

// List returns the whole log sorted for presentation.
func (l *MessageLog) List(ctx context.Context, conversationID domain.ConversationID) ([]*domain.Message, error) {
	var all []*domain.Message
	var after int64
	for {
		page, err := l.repo.ListSince(ctx, conversationID, after, l.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < l.pageSize || len(page) == 0 {
			break
		}
		after = page[len(page)-1].Seq
	}
	domain.SortByCreatedAt(all)
	return all, nil
}

// Purge deletes every message of the conversation.
func (l *MessageLog) Purge(ctx context.Context, conversationID domain.ConversationID) error {
	if err := l.repo.DeleteByConversation(ctx, conversationID); err != nil {
		return err
	}
	l.logger.Info().Str("conversation", conversationID.String()).Msg("message log purged")
	return nil
}

// Subscribe replays the current log and then follows new appends until
// the stream is closed or ctx is done.
func (l *MessageLog) Subscribe(ctx context.Context, conversationID domain.ConversationID) *MessageStream {
	base, streamCtx := newStream(ctx)
	s := &MessageStream{stream: base, ch: make(chan *domain.Message)}

	// Watch before the first read so no append falls between them.
	hints := l.feed.Watch(domain.MessagesPath(conversationID))
	go l.follow(streamCtx, conversationID, s, hints)
	return s
}

func (l *MessageLog) follow(ctx context.Context, conversationID domain.ConversationID, s *MessageStream, hints <-chan domain.Change) {
	defer close(s.done)
	defer close(s.ch)
	defer l.feed.Unwatch(hints)

	log := l.logger.With().Str("conversation", conversationID.String()).Logger()

	var (
		lastSeq int64
		queue   []*domain.Message
		retry   <-chan time.Time
		fetch   = true
	)

	for {
		if fetch {
			fetch = false
			page, err := l.repo.ListSince(ctx, conversationID, lastSeq, l.pageSize)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("message stream read failed, retrying")
				retry = time.After(l.retryInterval)
			case len(page) > 0:
				queue = append(queue, page...)
				lastSeq = page[len(page)-1].Seq
				log.Debug().Int("count", len(page)).Int64("last_seq", lastSeq).Msg("message stream fetched")
				if len(page) == l.pageSize {
					fetch = true
					continue
				}
			}
		}

		var (
			out  chan *domain.Message
			next *domain.Message
		)
		if len(queue) > 0 {
			out = s.ch
			next = queue[0]
		}

		select {
		case <-ctx.Done():
			return
		case out <- next:
			queue = queue[1:]
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
