package service

import (
	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/identity"
	"github.com/needsclan/Gk1/internal/repository"
)

// Services wires the synchronization components over one store.
type Services struct {
	Resolver      *identity.Resolver
	Log           *MessageLog
	Inbox         *InboxStore
	Conversations *Conversations
	Contacts      *ContactCreator
	Disposer      *Disposer
	Sessions      *SessionRegistry
}

func New(store *repository.Store, logger zerolog.Logger) *Services {
	resolver := identity.NewResolver(store.Profiles, logger.With().Str("component", "identity").Logger())
	log := NewMessageLog(store.Messages, store.Feed, logger.With().Str("component", "message_log").Logger())
	inbox := NewInboxStore(store.Mirrors, store.Feed, logger.With().Str("component", "inbox").Logger())
	conversations := NewConversations(log, inbox, resolver, logger.With().Str("component", "session").Logger())

	return &Services{
		Resolver:      resolver,
		Log:           log,
		Inbox:         inbox,
		Conversations: conversations,
		Contacts:      NewContactCreator(inbox, resolver, logger.With().Str("component", "contacts").Logger()),
		Disposer:      NewDisposer(inbox, log, logger.With().Str("component", "disposer").Logger()),
		Sessions:      NewSessionRegistry(conversations),
	}
}
