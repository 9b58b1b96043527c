package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

// HeadlessCLI handles JSON-based headless operation
type HeadlessCLI struct {
	handler *CommandHandler
	reader  *bufio.Reader
	writer  io.Writer
	mu      sync.Mutex
}

// NewHeadlessCLI creates a new headless CLI reading requests from in and
// writing responses and events to out, one JSON object per line.
func NewHeadlessCLI(handler *CommandHandler, in io.Reader, out io.Writer) *HeadlessCLI {
	return &HeadlessCLI{
		handler: handler,
		reader:  bufio.NewReader(in),
		writer:  out,
	}
}

// Run starts the headless JSON processing loop
func (cli *HeadlessCLI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Send ready message
	cli.sendResponse(Response{
		Success: true,
		Data:    map[string]string{"status": "ready", "mode": "headless", "participant": cli.handler.me.String()},
	})

	cli.handler.SubscribeInbox(ctx)
	go cli.streamEvents(ctx)

	// Process incoming JSON requests
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			line, err := cli.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					if line != "" {
						cli.processRequest(ctx, line)
					}
					return nil
				}
				cli.sendError("", fmt.Sprintf("read error: %v", err), nil)
				return fmt.Errorf("failed to read request: %w", err)
			}

			if quit := cli.processRequest(ctx, line); quit {
				return nil
			}
		}
	}
}

func (cli *HeadlessCLI) processRequest(ctx context.Context, line string) bool {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		cli.sendError("", fmt.Sprintf("invalid JSON: %v", err), nil)
		return false
	}

	if req.Command == "" {
		cli.sendError(req.ID, "missing command field", nil)
		return false
	}

	switch req.Command {
	case "subscribe":
		// Already subscribed, just acknowledge
		cli.sendResponse(Response{
			ID:      req.ID,
			Success: true,
			Data:    map[string]string{"message": "subscribed to events"},
		})
		return false
	case "quit", "exit":
		cli.sendResponse(Response{
			ID:      req.ID,
			Success: true,
			Data:    map[string]string{"message": "goodbye"},
		})
		return true
	}

	cmd := &Command{
		Name: req.Command,
		Args: cli.paramsToArgs(req.Command, req.Params),
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		cli.sendError(req.ID, err.Error(), err)
		return false
	}

	cli.sendResponse(Response{
		ID:      req.ID,
		Success: true,
		Data:    result,
	})
	return false
}

func (cli *HeadlessCLI) paramsToArgs(command string, params map[string]interface{}) []string {
	if params == nil {
		return nil
	}

	var args []string
	str := func(key string) {
		if v, ok := params[key].(string); ok && v != "" {
			args = append(args, v)
		}
	}
	num := func(key string) {
		if v, ok := params[key].(float64); ok {
			args = append(args, fmt.Sprintf("%d", int(v)))
		}
	}

	switch command {
	case "inbox", "ls":
		num("limit")
	case "open", "o", "close", "dispose", "rm":
		str("peer")
	case "messages", "msg":
		str("peer")
		num("limit")
	case "send":
		str("peer")
		str("text")
	case "contact", "add":
		str("peer")
		str("name")
	case "name":
		str("participant_id")
	}

	return args
}

func (cli *HeadlessCLI) streamEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-cli.handler.Events():
			cli.sendEvent(event)
		}
	}
}

func (cli *HeadlessCLI) sendResponse(resp Response) {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	data, _ := json.Marshal(resp)
	fmt.Fprintln(cli.writer, string(data))
}

func (cli *HeadlessCLI) sendError(id, message string, err error) {
	resp := Response{
		ID:      id,
		Success: false,
		Error:   message,
	}
	if err != nil {
		resp.Code = string(appErrors.CodeOf(err))
	}
	cli.sendResponse(resp)
}

func (cli *HeadlessCLI) sendEvent(event Event) {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	data, _ := json.Marshal(map[string]interface{}{
		"type":      "event",
		"event":     event.Type,
		"timestamp": event.Timestamp,
		"data":      event.Data,
	})
	fmt.Fprintln(cli.writer, string(data))
}
