package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/domain"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

// Disposer removes a participant's mirror and reclaims the message log
// once no mirror references the conversation.
type Disposer struct {
	inbox  *InboxStore
	log    *MessageLog
	logger zerolog.Logger
}

func NewDisposer(inbox *InboxStore, log *MessageLog, logger zerolog.Logger) *Disposer {
	return &Disposer{inbox: inbox, log: log, logger: logger}
}

type DisposeResult struct {
	ConversationID   domain.ConversationID
	HistoryCollected bool
}

// Dispose is check-then-act, not atomic. If the peer revives the
// conversation between the peer check and the purge, the revived
// conversation starts from an empty history.
func (d *Disposer) Dispose(ctx context.Context, owner domain.ParticipantID, conversationID domain.ConversationID, peer domain.ParticipantID) (*DisposeResult, error) {
	expected, err := domain.NewConversationID(owner, peer)
	if err != nil {
		return nil, err
	}
	if expected != conversationID {
		return nil, appErrors.InvalidArg("conversation " + conversationID.String() + " is not between " + owner.String() + " and " + peer.String())
	}

	if err := d.inbox.Remove(ctx, owner, conversationID); err != nil {
		return nil, err
	}

	peerMirror, err := d.inbox.Get(ctx, peer, conversationID)
	if err != nil {
		return nil, err
	}

	result := &DisposeResult{ConversationID: conversationID}
	if peerMirror != nil {
		d.logger.Info().Str("conversation", conversationID.String()).Str("owner", owner.String()).Msg("mirror removed, peer still holds conversation")
		return result, nil
	}

	if err := d.log.Purge(ctx, conversationID); err != nil {
		return nil, err
	}
	result.HistoryCollected = true
	d.logger.Info().Str("conversation", conversationID.String()).Str("owner", owner.String()).Msg("mirror removed, message log collected")
	return result, nil
}
