package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/identity"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionReady         SessionState = "ready"
	SessionClosed        SessionState = "closed"
)

// Conversations opens conversation sessions.
type Conversations struct {
	log      *MessageLog
	inbox    *InboxStore
	resolver *identity.Resolver
	logger   zerolog.Logger
}

func NewConversations(log *MessageLog, inbox *InboxStore, resolver *identity.Resolver, logger zerolog.Logger) *Conversations {
	return &Conversations{log: log, inbox: inbox, resolver: resolver, logger: logger}
}

// Session is one participant's open view of a conversation.
type Session struct {
	log    *MessageLog
	inbox  *InboxStore
	logger zerolog.Logger

	myID     domain.ParticipantID
	peerID   domain.ParticipantID
	convID   domain.ConversationID
	myName   string
	peerName string

	mu       sync.Mutex
	state    SessionState
	stream   *MessageStream
	seen     map[domain.MessageID]struct{}
	messages []*domain.Message
	updates  chan struct{}
}

// Enter lazily creates both mirrors and starts following the message log.
// A failed own-mirror check or write aborts; a failed peer-mirror write is
// logged and repaired by the next send.
func (c *Conversations) Enter(ctx context.Context, myID, peerID domain.ParticipantID) (*Session, error) {
	convID, err := c.resolver.ConversationID(myID, peerID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		log:      c.log,
		inbox:    c.inbox,
		logger:   c.logger.With().Str("conversation", convID.String()).Str("participant", myID.String()).Logger(),
		myID:     myID,
		peerID:   peerID,
		convID:   convID,
		myName:   c.resolver.DisplayName(ctx, myID),
		peerName: c.resolver.DisplayName(ctx, peerID),
		state:    SessionUninitialized,
		seen:     make(map[domain.MessageID]struct{}),
		updates:  make(chan struct{}, 1),
	}

	// Names already on the mirrors, such as those chosen at contact
	// creation, win over the resolved ones.
	mine, err := s.ensureMirror(ctx, myID, peerID, s.peerName)
	if err != nil {
		return nil, err
	}
	if mine.PeerDisplayName != "" {
		s.peerName = mine.PeerDisplayName
	}
	theirs, err := s.ensureMirror(ctx, peerID, myID, s.myName)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner", peerID.String()).Msg("peer mirror init failed")
	} else if theirs.PeerDisplayName != "" {
		s.myName = theirs.PeerDisplayName
	}

	// The stream outlives the Enter call and ends with Close.
	streamCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	s.state = SessionReady
	s.stream = s.log.Subscribe(streamCtx, convID)
	s.mu.Unlock()

	go s.consume(s.stream)

	s.logger.Info().Msg("conversation session ready")
	return s, nil
}

// ensureMirror returns owner's mirror, creating it with peerName when absent.
func (s *Session) ensureMirror(ctx context.Context, owner, peer domain.ParticipantID, peerName string) (*domain.Mirror, error) {
	existing, err := s.inbox.Get(ctx, owner, s.convID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	// Two clients racing here write equivalent rows.
	m := domain.NewMirror(owner, peer, s.convID, peerName, "")
	if err := s.inbox.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Session) consume(st *MessageStream) {
	for msg := range st.C() {
		s.add(msg)
	}
}

func (s *Session) add(msg *domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosed {
		return
	}
	if _, dup := s.seen[msg.ID]; dup {
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)

	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Session) ConversationID() domain.ConversationID { return s.convID }
func (s *Session) MyID() domain.ParticipantID { return s.myID }
func (s *Session) PeerID() domain.ParticipantID { return s.peerID }
func (s *Session) MyName() string { return s.myName }
func (s *Session) PeerName() string { return s.peerName }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the deduplicated messages sorted by createdAt.
func (s *Session) Messages() []*domain.Message {
	s.mu.Lock()
	out := make([]*domain.Message, len(s.messages))
	copy(out, s.messages)
	s.mu.Unlock()

	domain.SortByCreatedAt(out)
	return out
}

// Updates signals that Messages changed. Signals coalesce; the channel is
// closed by Close.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// Send appends text to the log and then refreshes both mirrors. When the
// append succeeded but a mirror write failed, the stored message is
// returned together with a PARTIAL_SYNC error.
func (s *Session) Send(ctx context.Context, text string) (*domain.Message, error) {
	if s.State() != SessionReady {
		return nil, appErrors.ErrSessionNotReady
	}

	msg, err := s.log.Append(ctx, s.convID, s.myID, text)
	if err != nil {
		return nil, err
	}
	s.add(msg)

	var (
		failed []string
		causes []error
	)
	mine := domain.NewMirror(s.myID, s.peerID, s.convID, s.peerName, msg.Text)
	if err := s.inbox.Upsert(ctx, mine); err != nil {
		failed = append(failed, s.myID.String())
		causes = append(causes, err)
	}
	theirs := domain.NewMirror(s.peerID, s.myID, s.convID, s.myName, msg.Text)
	if err := s.inbox.Upsert(ctx, theirs); err != nil {
		failed = append(failed, s.peerID.String())
		causes = append(causes, err)
	}

	if len(failed) > 0 {
		warning := appErrors.PartialSync(failed, errors.Join(causes...))
		s.logger.Warn().Err(warning).Str("message", string(msg.ID)).Msg("mirror sync incomplete")
		return msg, warning
	}
	return msg, nil
}

// Close stops the message subscription. Already delivered messages stay
// readable. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosed {
		return
	}
	s.state = SessionClosed
	if s.stream != nil {
		s.stream.Close()
	}
	close(s.updates)
	s.logger.Info().Msg("conversation session closed")
}
