package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/needsclan/Gk1/internal/service"
)

type ServerConfig struct {
	Address string
}

type Server struct {
	mcpServer  *server.MCPServer
	sseServer  *server.SSEServer
	httpServer *http.Server
	svc        *service.Services
	logger     zerolog.Logger
	config     ServerConfig
}

func NewServer(svc *service.Services, logger zerolog.Logger, config ServerConfig) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
		config: config,
	}

	s.mcpServer = server.NewMCPServer(
		"inbox-sync",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	s.sseServer = server.NewSSEServer(s.mcpServer,
		server.WithKeepAliveInterval(30*time.Second),
	)

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("inbox_list",
			mcp.WithDescription("List a participant's conversations, most recently active first"),
			mcp.WithString("owner",
				mcp.Required(),
				mcp.Description("Participant id whose inbox to list"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of conversations to return (default 20, max 100)"),
			),
		),
		s.handleInboxList,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("conversation_messages",
			mcp.WithDescription("Get the messages of the conversation between two participants, oldest first"),
			mcp.WithString("me",
				mcp.Required(),
				mcp.Description("Participant id of the reader"),
			),
			mcp.WithString("peer",
				mcp.Required(),
				mcp.Description("Participant id of the other side"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Return only the latest N messages (default 50, max 200)"),
			),
		),
		s.handleConversationMessages,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("conversation_send",
			mcp.WithDescription("Send a text message as one participant to another"),
			mcp.WithString("me",
				mcp.Required(),
				mcp.Description("Participant id of the sender"),
			),
			mcp.WithString("peer",
				mcp.Required(),
				mcp.Description("Participant id of the recipient"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Message text to send"),
			),
		),
		s.handleConversationSend,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("contact_create",
			mcp.WithDescription("Create or revive a contact: both participants get an empty conversation in their inbox"),
			mcp.WithString("me",
				mcp.Required(),
				mcp.Description("Participant id of the actor"),
			),
			mcp.WithString("peer",
				mcp.Required(),
				mcp.Description("Participant id of the new contact"),
			),
			mcp.WithString("my_name",
				mcp.Description("Display name the peer will see for the actor"),
			),
			mcp.WithString("peer_name",
				mcp.Description("Display name the actor will see for the peer"),
			),
		),
		s.handleContactCreate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("conversation_dispose",
			mcp.WithDescription("Remove a conversation from one participant's inbox. The history is deleted once neither side keeps it."),
			mcp.WithString("owner",
				mcp.Required(),
				mcp.Description("Participant id removing the conversation"),
			),
			mcp.WithString("peer",
				mcp.Required(),
				mcp.Description("Participant id of the other side"),
			),
		),
		s.handleConversationDispose,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("participant_display_name",
			mcp.WithDescription("Resolve the display name of a participant"),
			mcp.WithString("participant_id",
				mcp.Required(),
				mcp.Description("Participant id to resolve"),
			),
		),
		s.handleDisplayName,
	)
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/sse", s.sseServer.SSEHandler())
	mux.Handle("/message", s.sseServer.MessageHandler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s.handler(),
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
