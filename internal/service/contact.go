package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/identity"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

// ContactCreator creates a conversation's mirror pair without a message.
type ContactCreator struct {
	inbox    *InboxStore
	resolver *identity.Resolver
	logger   zerolog.Logger
}

func NewContactCreator(inbox *InboxStore, resolver *identity.Resolver, logger zerolog.Logger) *ContactCreator {
	return &ContactCreator{inbox: inbox, resolver: resolver, logger: logger}
}

// CreateContact writes both mirrors with an empty preview whether or not
// they exist, which revives a contact the peer or the actor deleted.
// Blank names fall back to the resolved display name.
func (c *ContactCreator) CreateContact(ctx context.Context, myID, peerID domain.ParticipantID, myDisplayName, peerDisplayName string) (domain.ConversationID, error) {
	if myID != "" && myID == peerID {
		return "", appErrors.ErrSelfReference
	}
	convID, err := c.resolver.ConversationID(myID, peerID)
	if err != nil {
		return "", err
	}

	myName := c.resolver.NameOr(ctx, myDisplayName, myID)
	peerName := c.resolver.NameOr(ctx, peerDisplayName, peerID)

	// Both writes are attempted; the pair is not atomic.
	errMine := c.inbox.Upsert(ctx, domain.NewMirror(myID, peerID, convID, peerName, ""))
	errTheirs := c.inbox.Upsert(ctx, domain.NewMirror(peerID, myID, convID, myName, ""))
	if err := errors.Join(errMine, errTheirs); err != nil {
		c.logger.Warn().Err(err).Str("conversation", convID.String()).Msg("contact creation incomplete")
		return convID, err
	}

	c.logger.Info().
		Str("conversation", convID.String()).
		Str("participant", myID.String()).
		Str("peer", peerID.String()).
		Msg("contact created")
	return convID, nil
}
