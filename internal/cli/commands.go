package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/service"
)

const eventBuffer = 64

// CommandHandler handles CLI commands on behalf of one participant
type CommandHandler struct {
	svc    *service.Services
	me     domain.ParticipantID
	events chan Event

	mu      sync.Mutex
	current domain.ParticipantID
	watched map[domain.ConversationID]bool
}

// NewCommandHandler creates a new command handler acting as me
func NewCommandHandler(svc *service.Services, me domain.ParticipantID) *CommandHandler {
	return &CommandHandler{
		svc:     svc,
		me:      me,
		events:  make(chan Event, eventBuffer),
		watched: make(map[domain.ConversationID]bool),
	}
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []string
	// Raw is the input after the command name, spacing intact.
	Raw string
}

// Rest returns everything after the first n arguments. Free text keeps its
// original spacing when the command came from ParseCommand.
func (c *Command) Rest(n int) string {
	if n >= len(c.Args) {
		return ""
	}
	if c.Raw == "" {
		return strings.Join(c.Args[n:], " ")
	}
	rest := c.Raw
	for i := 0; i < n; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		rest = strings.TrimPrefix(rest, c.Args[i])
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace)
}

// ParseCommand parses a command string (e.g., "/send bob Hello")
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	if !strings.HasPrefix(input, "/") {
		return nil, fmt.Errorf("commands must start with /")
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]
	raw := strings.TrimSpace(input[len(parts[0]):])

	return &Command{Name: name, Args: args, Raw: raw}, nil
}

// Execute executes a command and returns the result
func (h *CommandHandler) Execute(ctx context.Context, cmd *Command) (interface{}, error) {
	switch cmd.Name {
	case "help", "h":
		return h.cmdHelp()
	case "whoami", "status", "s":
		return h.cmdWhoami(ctx)
	case "inbox", "ls":
		return h.cmdInbox(ctx, cmd.Args)
	case "open", "o":
		return h.cmdOpen(ctx, cmd.Args)
	case "close":
		return h.cmdClose(cmd.Args)
	case "messages", "msg":
		return h.cmdMessages(ctx, cmd.Args)
	case "send":
		return h.cmdSend(ctx, cmd)
	case "contact", "add":
		return h.cmdContact(ctx, cmd)
	case "dispose", "rm":
		return h.cmdDispose(ctx, cmd.Args)
	case "name":
		return h.cmdName(ctx, cmd.Args)
	case "quit", "exit", "q":
		return map[string]bool{"quit": true}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s. Type /help for available commands", cmd.Name)
	}
}

func (h *CommandHandler) cmdHelp() (interface{}, error) {
	help := `Available commands:

Inbox:
  /inbox, /ls [limit]          List your conversations (default: 20)
  /contact, /add <peer> [name] Add a contact (both inboxes get the conversation)
  /dispose, /rm <peer>         Remove a conversation from your inbox

Conversation:
  /open, /o <peer>             Open a conversation and follow new messages
  /close [peer]                Stop following a conversation
  /messages, /msg [peer] [limit]  Show messages (default: open conversation, 50)
  /send <peer> <text>          Send a text message
  /send . <text>               Send to the open conversation

Other:
  /whoami, /s                  Show who you are acting as
  /name <participant>          Resolve a display name
  /help, /h                    Show this help
  /quit, /exit, /q             Exit the CLI`

	return map[string]string{"help": help}, nil
}

func (h *CommandHandler) cmdWhoami(ctx context.Context) (interface{}, error) {
	result := map[string]interface{}{
		"participant":  h.me.String(),
		"display_name": h.svc.Resolver.DisplayName(ctx, h.me),
	}
	if peer := h.currentPeer(); peer != "" {
		result["open_conversation_with"] = peer.String()
	}
	return result, nil
}

func (h *CommandHandler) cmdInbox(ctx context.Context, args []string) (interface{}, error) {
	limit := 20
	if len(args) > 0 {
		if l, err := strconv.Atoi(args[0]); err == nil && l > 0 {
			limit = l
		}
	}

	mirrors, err := h.svc.Inbox.List(ctx, h.me)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	if len(mirrors) > limit {
		mirrors = mirrors[:limit]
	}

	result := conversationInfos(mirrors)
	return map[string]interface{}{"conversations": result, "count": len(result)}, nil
}

func (h *CommandHandler) cmdOpen(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /open <peer>")
	}
	peer := domain.ParticipantID(args[0])

	s, err := h.svc.Sessions.Open(ctx, h.me, peer)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	h.mu.Lock()
	h.current = peer
	h.mu.Unlock()
	h.watch(ctx, s)

	return sessionInfo(s), nil
}

func (h *CommandHandler) cmdClose(args []string) (interface{}, error) {
	peer := h.currentPeer()
	if len(args) > 0 {
		peer = domain.ParticipantID(args[0])
	}
	if peer == "" {
		return nil, fmt.Errorf("usage: /close <peer>")
	}

	h.svc.Sessions.Close(h.me, peer)

	h.mu.Lock()
	if h.current == peer {
		h.current = ""
	}
	h.mu.Unlock()

	return map[string]string{"message": fmt.Sprintf("Closed conversation with %s", peer)}, nil
}

func (h *CommandHandler) cmdMessages(ctx context.Context, args []string) (interface{}, error) {
	peer := h.currentPeer()
	limit := 50
	for _, arg := range args {
		if l, err := strconv.Atoi(arg); err == nil && l > 0 {
			limit = l
			continue
		}
		peer = domain.ParticipantID(arg)
	}
	if peer == "" {
		return nil, fmt.Errorf("usage: /messages <peer> [limit]")
	}

	convID, err := h.svc.Resolver.ConversationID(h.me, peer)
	if err != nil {
		return nil, err
	}
	messages, err := h.svc.Log.List(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	result := make([]MessageInfo, len(messages))
	for i, msg := range messages {
		result[i] = h.messageInfo(msg)
	}
	return map[string]interface{}{"messages": result, "count": len(result), "peer_name": h.svc.Resolver.DisplayName(ctx, peer)}, nil
}

func (h *CommandHandler) cmdSend(ctx context.Context, cmd *Command) (interface{}, error) {
	args := cmd.Args
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: /send <peer> <text>")
	}

	peer := domain.ParticipantID(args[0])
	if args[0] == "." {
		peer = h.currentPeer()
		if peer == "" {
			return nil, fmt.Errorf("no open conversation. Use /open <peer> first")
		}
	}
	text := cmd.Rest(1)

	s, err := h.svc.Sessions.Open(ctx, h.me, peer)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	msg, err := s.Send(ctx, text)
	if err != nil && msg == nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	result := SendResult{Message: h.messageInfo(msg)}
	if err != nil {
		result.Warning = err.Error()
	}
	return result, nil
}

func (h *CommandHandler) cmdContact(ctx context.Context, cmd *Command) (interface{}, error) {
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("usage: /contact <peer> [display name]")
	}
	peer := domain.ParticipantID(cmd.Args[0])
	peerName := cmd.Rest(1)

	convID, err := h.svc.Contacts.CreateContact(ctx, h.me, peer, "", peerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return map[string]string{"message": fmt.Sprintf("Contact added. Conversation: %s", convID), "conversation_id": convID.String()}, nil
}

func (h *CommandHandler) cmdDispose(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /dispose <peer>")
	}
	peer := domain.ParticipantID(args[0])

	convID, err := h.svc.Resolver.ConversationID(h.me, peer)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.Disposer.Dispose(ctx, h.me, convID, peer)
	if err != nil {
		return nil, fmt.Errorf("failed to dispose conversation: %w", err)
	}
	if _, err := h.cmdClose([]string{peer.String()}); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"conversation_id":   res.ConversationID.String(),
		"history_collected": res.HistoryCollected,
	}, nil
}

func (h *CommandHandler) cmdName(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /name <participant>")
	}
	id := domain.ParticipantID(args[0])
	return ParticipantInfo{ID: id.String(), DisplayName: h.svc.Resolver.DisplayName(ctx, id)}, nil
}

func (h *CommandHandler) currentPeer() domain.ParticipantID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *CommandHandler) messageInfo(msg *domain.Message) MessageInfo {
	return MessageInfo{
		ID:             string(msg.ID),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Text:           msg.Text,
		Timestamp:      msg.CreatedAt,
		IsFromMe:       msg.SenderID == h.me,
	}
}

func conversationInfos(mirrors []*domain.Mirror) []ConversationInfo {
	result := make([]ConversationInfo, len(mirrors))
	for i, m := range mirrors {
		result[i] = ConversationInfo{
			ConversationID:     m.ConversationID.String(),
			PeerID:             m.PeerID.String(),
			PeerName:           m.PeerDisplayName,
			LastMessagePreview: m.LastMessagePreview,
			UpdatedAt:          m.UpdatedAt,
		}
	}
	return result
}

func sessionInfo(s *service.Session) SessionInfo {
	return SessionInfo{
		ConversationID: s.ConversationID().String(),
		PeerID:         s.PeerID().String(),
		PeerName:       s.PeerName(),
		State:          string(s.State()),
	}
}

// Events returns the handler's event stream. It is fed by SubscribeInbox
// and by every conversation opened with /open.
func (h *CommandHandler) Events() <-chan Event {
	return h.events
}

// SubscribeInbox forwards inbox snapshots as inbox_updated events until
// ctx ends.
func (h *CommandHandler) SubscribeInbox(ctx context.Context) {
	st := h.svc.Inbox.SubscribeInbox(ctx, h.me)
	go func() {
		defer st.Close()
		for snapshot := range st.C() {
			infos := conversationInfos(snapshot)
			h.emit(ctx, Event{
				Type:      EventInboxUpdated,
				Timestamp: time.Now(),
				Data:      map[string]interface{}{"conversations": infos, "count": len(infos)},
			})
		}
	}()
}

// watch forwards peer messages created after the session was opened.
// History is available through /messages.
func (h *CommandHandler) watch(ctx context.Context, s *service.Session) {
	h.mu.Lock()
	if h.watched[s.ConversationID()] {
		h.mu.Unlock()
		return
	}
	h.watched[s.ConversationID()] = true
	h.mu.Unlock()

	since := time.Now().UTC().Truncate(time.Millisecond)
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.watched, s.ConversationID())
			h.mu.Unlock()
		}()

		emitted := make(map[domain.MessageID]bool)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-s.Updates():
				if !ok {
					return
				}
			}
			for _, msg := range s.Messages() {
				if emitted[msg.ID] || msg.SenderID == h.me || msg.CreatedAt.Before(since) {
					continue
				}
				emitted[msg.ID] = true
				h.emit(ctx, Event{Type: EventMessageReceived, Timestamp: time.Now(), Data: h.messageInfo(msg)})
			}
		}
	}()
}

func (h *CommandHandler) emit(ctx context.Context, evt Event) {
	select {
	case h.events <- evt:
	case <-ctx.Done():
	}
}
