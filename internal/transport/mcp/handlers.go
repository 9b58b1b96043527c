package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/needsclan/Gk1/internal/domain"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func toolError(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s [%s]: %v", action, appErrors.CodeOf(err), err))
}

func (s *Server) handleInboxList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := request.GetString("owner", "")
	if owner == "" {
		return mcp.NewToolResultError("owner is required"), nil
	}
	limit := clampLimit(request.GetInt("limit", 20), 20, 100)

	mirrors, err := s.svc.Inbox.List(ctx, domain.ParticipantID(owner))
	if err != nil {
		return toolError("list inbox", err), nil
	}
	if len(mirrors) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No conversations for %s.", owner)), nil
	}
	if len(mirrors) > limit {
		mirrors = mirrors[:limit]
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d conversation(s):\n\n", len(mirrors)))

	for i, m := range mirrors {
		result.WriteString(fmt.Sprintf("%d. %s\n", i+1, m.PeerDisplayName))
		result.WriteString(fmt.Sprintf("   Conversation: %s\n", m.ConversationID))
		result.WriteString(fmt.Sprintf("   Peer: %s\n", m.PeerID))

		if m.LastMessagePreview != "" {
			preview := m.LastMessagePreview
			if len([]rune(preview)) > 60 {
				preview = string([]rune(preview)[:60]) + "..."
			}
			result.WriteString(fmt.Sprintf("   Last: %s\n", preview))
		}
		if !m.UpdatedAt.IsZero() {
			result.WriteString(fmt.Sprintf("   Time: %s\n", m.UpdatedAt.Format("2006-01-02 15:04")))
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleConversationMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	me := domain.ParticipantID(request.GetString("me", ""))
	peer := domain.ParticipantID(request.GetString("peer", ""))
	if me == "" || peer == "" {
		return mcp.NewToolResultError("me and peer are required"), nil
	}

	convID, err := s.svc.Resolver.ConversationID(me, peer)
	if err != nil {
		return toolError("resolve conversation", err), nil
	}
	limit := clampLimit(request.GetInt("limit", 50), 50, 200)

	messages, err := s.svc.Log.List(ctx, convID)
	if err != nil {
		return toolError("get messages", err), nil
	}
	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages in conversation %s", convID)), nil
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	myName := s.svc.Resolver.DisplayName(ctx, me)
	peerName := s.svc.Resolver.DisplayName(ctx, peer)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Messages in %s (%d):\n\n", convID, len(messages)))

	for _, msg := range messages {
		sender := peerName
		if msg.SenderID == me {
			sender = myName + " (me)"
		}
		result.WriteString(fmt.Sprintf("[%s] %s:\n", msg.CreatedAt.Format("2006-01-02 15:04"), sender))
		result.WriteString(fmt.Sprintf("  %s\n", msg.Text))
		result.WriteString(fmt.Sprintf("  ID: %s\n\n", msg.ID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleConversationSend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	me := domain.ParticipantID(request.GetString("me", ""))
	peer := domain.ParticipantID(request.GetString("peer", ""))
	text := request.GetString("text", "")
	if me == "" || peer == "" {
		return mcp.NewToolResultError("me and peer are required"), nil
	}

	session, err := s.svc.Sessions.Open(ctx, me, peer)
	if err != nil {
		return toolError("open conversation", err), nil
	}

	msg, err := session.Send(ctx, text)
	if err != nil && msg == nil {
		return toolError("send message", err), nil
	}

	out := fmt.Sprintf("Message sent to %s.\nConversation: %s\nMessage ID: %s", session.PeerName(), msg.ConversationID, msg.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("conversation", msg.ConversationID.String()).Msg("send completed with partial sync")
		out += fmt.Sprintf("\nWarning: %v", err)
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleContactCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	me := domain.ParticipantID(request.GetString("me", ""))
	peer := domain.ParticipantID(request.GetString("peer", ""))
	if me == "" || peer == "" {
		return mcp.NewToolResultError("me and peer are required"), nil
	}

	convID, err := s.svc.Contacts.CreateContact(ctx, me, peer,
		request.GetString("my_name", ""),
		request.GetString("peer_name", ""))
	if err != nil {
		return toolError("create contact", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Contact created. Conversation: %s", convID)), nil
}

func (s *Server) handleConversationDispose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := domain.ParticipantID(request.GetString("owner", ""))
	peer := domain.ParticipantID(request.GetString("peer", ""))
	if owner == "" || peer == "" {
		return mcp.NewToolResultError("owner and peer are required"), nil
	}

	convID, err := s.svc.Resolver.ConversationID(owner, peer)
	if err != nil {
		return toolError("resolve conversation", err), nil
	}

	res, err := s.svc.Disposer.Dispose(ctx, owner, convID, peer)
	if err != nil {
		return toolError("dispose conversation", err), nil
	}
	s.svc.Sessions.Close(owner, peer)

	if res.HistoryCollected {
		return mcp.NewToolResultText(fmt.Sprintf("Conversation %s removed. No participant keeps it, history deleted.", convID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Conversation %s removed from %s's inbox. The peer still keeps the history.", convID, owner)), nil
}

func (s *Server) handleDisplayName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("participant_id", "")
	if id == "" {
		return mcp.NewToolResultError("participant_id is required"), nil
	}
	return mcp.NewToolResultText(s.svc.Resolver.DisplayName(ctx, domain.ParticipantID(id))), nil
}
