package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// InteractiveCLI handles interactive command-line interface
type InteractiveCLI struct {
	handler *CommandHandler
	reader  *bufio.Reader
	writer  io.Writer
	mu      sync.Mutex
}

// NewInteractiveCLI creates a new interactive CLI
func NewInteractiveCLI(handler *CommandHandler, in io.Reader, out io.Writer) *InteractiveCLI {
	return &InteractiveCLI{
		handler: handler,
		reader:  bufio.NewReader(in),
		writer:  out,
	}
}

// Run starts the interactive CLI loop
func (cli *InteractiveCLI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.printWelcome(ctx)

	go cli.handleEvents(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			cli.print("\n> ")
			line, err := cli.reader.ReadString('\n')
			if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
				if err == io.EOF {
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if err := cli.processCommand(ctx, line); err != nil {
				if err.Error() == "quit" {
					cli.println("Goodbye!")
					return nil
				}
				cli.printf("Error: %s\n", err)
			}
		}
	}
}

func (cli *InteractiveCLI) printWelcome(ctx context.Context) {
	cli.println("===========================================")
	cli.println("  Inbox Sync CLI")
	cli.println("===========================================")
	cli.println("Type /help for available commands")
	cli.println("")

	result, _ := cli.handler.cmdWhoami(ctx)
	if m, ok := result.(map[string]interface{}); ok {
		cli.printf("Signed in as %s (%s)\n", m["display_name"], m["participant"])
	}
}

func (cli *InteractiveCLI) processCommand(ctx context.Context, input string) error {
	cmd, err := ParseCommand(input)
	if err != nil {
		return err
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	// Check for quit command
	if m, ok := result.(map[string]bool); ok && m["quit"] {
		return fmt.Errorf("quit")
	}

	cli.displayResult(cmd.Name, result)
	return nil
}

func (cli *InteractiveCLI) displayResult(cmdName string, result interface{}) {
	switch cmdName {
	case "help", "h":
		if m, ok := result.(map[string]string); ok {
			cli.println(m["help"])
		}

	case "inbox", "ls":
		if m, ok := result.(map[string]interface{}); ok {
			conversations, _ := m["conversations"].([]ConversationInfo)
			cli.printConversations(conversations)
		}

	case "open", "o":
		if s, ok := result.(SessionInfo); ok {
			cli.printf("Conversation with %s (%s) is %s.\n", s.PeerName, s.PeerID, s.State)
			cli.println("New messages will appear here. Use /send . <text> to reply.")
		}

	case "messages", "msg":
		if m, ok := result.(map[string]interface{}); ok {
			messages, _ := m["messages"].([]MessageInfo)
			peerName, _ := m["peer_name"].(string)
			cli.printf("Found %d message(s):\n\n", len(messages))
			for _, msg := range messages {
				sender := peerName
				if msg.IsFromMe {
					sender = "Me"
				}
				cli.printf("[%s] %s:\n", msg.Timestamp.Local().Format("2006-01-02 15:04"), sender)
				cli.printf("  %s\n", msg.Text)
				cli.printf("  ID: %s\n\n", msg.ID)
			}
		}

	case "send":
		if res, ok := result.(SendResult); ok {
			cli.printf("Message sent!\n")
			cli.printf("  ID: %s\n", res.Message.ID)
			cli.printf("  Time: %s\n", res.Message.Timestamp.Local().Format("2006-01-02 15:04:05"))
			if res.Warning != "" {
				cli.printf("  Warning: %s\n", res.Warning)
			}
		}

	case "dispose", "rm":
		if m, ok := result.(map[string]interface{}); ok {
			cli.printf("Removed conversation %s from your inbox.\n", m["conversation_id"])
			if collected, _ := m["history_collected"].(bool); collected {
				cli.println("Neither side keeps it any more; the history was deleted.")
			}
		}

	case "name":
		if p, ok := result.(ParticipantInfo); ok {
			cli.printf("%s is shown as %q\n", p.ID, p.DisplayName)
		}

	default:
		// Generic JSON output for other commands
		if m, ok := result.(map[string]string); ok {
			if msg, exists := m["message"]; exists {
				cli.println(msg)
				return
			}
		}
		// Pretty print JSON
		data, _ := json.MarshalIndent(result, "", "  ")
		cli.println(string(data))
	}
}

func (cli *InteractiveCLI) printConversations(conversations []ConversationInfo) {
	cli.printf("Found %d conversation(s):\n\n", len(conversations))
	for i, c := range conversations {
		cli.printf("%d. %s\n", i+1, c.PeerName)
		cli.printf("   Peer: %s\n", c.PeerID)
		if c.LastMessagePreview != "" {
			preview := c.LastMessagePreview
			if len([]rune(preview)) > 50 {
				preview = string([]rune(preview)[:50]) + "..."
			}
			cli.printf("   Last: %s\n", preview)
		}
	}
}

func (cli *InteractiveCLI) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-cli.handler.Events():
			if event.Type == EventMessageReceived {
				if msg, ok := event.Data.(MessageInfo); ok {
					cli.printf("\n[New Message] From %s:\n", msg.SenderID)
					cli.printf("  %s\n", msg.Text)
					cli.print("> ")
				}
			}
		}
	}
}

func (cli *InteractiveCLI) print(s string) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	fmt.Fprint(cli.writer, s)
}

func (cli *InteractiveCLI) println(s string) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	fmt.Fprintln(cli.writer, s)
}

func (cli *InteractiveCLI) printf(format string, args ...interface{}) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	fmt.Fprintf(cli.writer, format, args...)
}
