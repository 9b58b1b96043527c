package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/repository"
	"github.com/needsclan/Gk1/internal/service"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServices(t *testing.T) *service.Services {
	t.Helper()
	store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	svc := service.New(store, zerolog.Nop())
	t.Cleanup(func() {
		svc.Sessions.CloseAll()
		_ = store.Close()
	})
	return svc
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("  /send bob hello there ")
	require.NoError(t, err)
	assert.Equal(t, "send", cmd.Name)
	assert.Equal(t, []string{"bob", "hello", "there"}, cmd.Args)

	assert.Equal(t, "bob hello there", cmd.Raw)
	assert.Equal(t, "hello there", cmd.Rest(1))

	spaced, err := ParseCommand("/send bob  keep   the\tgaps")
	require.NoError(t, err)
	assert.Equal(t, "keep   the\tgaps", spaced.Rest(1))
	assert.Equal(t, "bob  keep   the\tgaps", spaced.Rest(0))
	assert.Empty(t, spaced.Rest(9))

	_, err = ParseCommand("send bob")
	assert.Error(t, err)
	_, err = ParseCommand("   ")
	assert.Error(t, err)
}

func TestCommandHandler_ContactSendInbox(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	alice := NewCommandHandler(svc, "alice")
	bob := NewCommandHandler(svc, "bob")

	_, err := alice.Execute(ctx, &Command{Name: "contact", Args: []string{"bob", "Bob", "B."}})
	require.NoError(t, err)

	res, err := alice.Execute(ctx, &Command{Name: "send", Args: []string{"bob", "hi", "bob"}})
	require.NoError(t, err)
	sent := res.(SendResult)
	assert.Equal(t, "hi bob", sent.Message.Text)
	assert.True(t, sent.Message.IsFromMe)
	assert.Empty(t, sent.Warning)

	res, err = bob.Execute(ctx, &Command{Name: "inbox"})
	require.NoError(t, err)
	convs := res.(map[string]interface{})["conversations"].([]ConversationInfo)
	require.Len(t, convs, 1)
	assert.Equal(t, "alice_bob", convs[0].ConversationID)
	assert.Equal(t, "hi bob", convs[0].LastMessagePreview)

	res, err = bob.Execute(ctx, &Command{Name: "messages", Args: []string{"alice"}})
	require.NoError(t, err)
	msgs := res.(map[string]interface{})["messages"].([]MessageInfo)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsFromMe)

	res, err = alice.Execute(ctx, &Command{Name: "inbox"})
	require.NoError(t, err)
	convs = res.(map[string]interface{})["conversations"].([]ConversationInfo)
	require.Len(t, convs, 1)
	assert.Equal(t, "Bob B.", convs[0].PeerName)
}

func TestCommandHandler_SendKeepsSpacing(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	h := NewCommandHandler(svc, "alice")

	cmd, err := ParseCommand("/send bob a   b")
	require.NoError(t, err)
	res, err := h.Execute(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, "a   b", res.(SendResult).Message.Text)

	cmd, err = ParseCommand("/contact carol Carol  Ann")
	require.NoError(t, err)
	_, err = h.Execute(ctx, cmd)
	require.NoError(t, err)
	m, err := svc.Inbox.Get(ctx, "alice", "alice_carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol  Ann", m.PeerDisplayName)
}

func TestCommandHandler_SendToOpenConversation(t *testing.T) {
	svc := newTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewCommandHandler(svc, "alice")

	_, err := h.Execute(ctx, &Command{Name: "send", Args: []string{".", "hello"}})
	assert.Error(t, err)

	res, err := h.Execute(ctx, &Command{Name: "open", Args: []string{"bob"}})
	require.NoError(t, err)
	assert.Equal(t, "ready", res.(SessionInfo).State)

	_, err = h.Execute(ctx, &Command{Name: "send", Args: []string{".", "hello"}})
	require.NoError(t, err)

	_, err = h.Execute(ctx, &Command{Name: "send", Args: []string{".", " "}})
	assert.Error(t, err)
}

func TestCommandHandler_EmitsPeerMessages(t *testing.T) {
	svc := newTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	alice := NewCommandHandler(svc, "alice")
	bob := NewCommandHandler(svc, "bob")

	_, err := alice.Execute(ctx, &Command{Name: "open", Args: []string{"bob"}})
	require.NoError(t, err)
	_, err = bob.Execute(ctx, &Command{Name: "send", Args: []string{"alice", "ping"}})
	require.NoError(t, err)

	select {
	case evt := <-alice.Events():
		assert.Equal(t, EventMessageReceived, evt.Type)
		assert.Equal(t, "ping", evt.Data.(MessageInfo).Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no message event")
	}
}

func TestCommandHandler_Dispose(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	alice := NewCommandHandler(svc, "alice")
	bob := NewCommandHandler(svc, "bob")

	_, err := alice.Execute(ctx, &Command{Name: "send", Args: []string{"bob", "bye"}})
	require.NoError(t, err)

	res, err := alice.Execute(ctx, &Command{Name: "dispose", Args: []string{"bob"}})
	require.NoError(t, err)
	assert.Equal(t, false, res.(map[string]interface{})["history_collected"])

	res, err = bob.Execute(ctx, &Command{Name: "rm", Args: []string{"alice"}})
	require.NoError(t, err)
	assert.Equal(t, true, res.(map[string]interface{})["history_collected"])

	msgs, err := svc.Log.List(ctx, domain.ConversationID("alice_bob"))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestCommandHandler_UnknownCommand(t *testing.T) {
	h := NewCommandHandler(newTestServices(t), "alice")

	_, err := h.Execute(context.Background(), &Command{Name: "react"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestHeadlessCLI_RequestsAndEvents(t *testing.T) {
	svc := newTestServices(t)
	h := NewCommandHandler(svc, "alice")

	input := strings.Join([]string{
		`{"id":"1","command":"contact","params":{"peer":"bob","name":"Bob"}}`,
		`{"id":"2","command":"send","params":{"peer":"bob","text":"hello there"}}`,
		`{"id":"3","command":"send","params":{"peer":"bob","text":"   "}}`,
		`not json`,
		`{"id":"4","command":"quit"}`,
	}, "\n") + "\n"

	var out lockedBuffer
	cli := NewHeadlessCLI(h, strings.NewReader(input), &out)
	require.NoError(t, cli.Run(context.Background()))

	responses := map[string]Response{}
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &raw))
		if raw["type"] == "event" {
			continue
		}
		var resp Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses[resp.ID] = resp
	}

	assert.True(t, responses["1"].Success)
	assert.True(t, responses["2"].Success)
	assert.False(t, responses["3"].Success)
	assert.Equal(t, "EMPTY_MESSAGE", responses["3"].Code)
	assert.False(t, responses[""].Success, "invalid JSON is reported without an id")
	assert.True(t, responses["4"].Success)
}

func TestHeadlessCLI_KeepsTextSpacing(t *testing.T) {
	svc := newTestServices(t)
	h := NewCommandHandler(svc, "alice")

	input := `{"id":"1","command":"send","params":{"peer":"bob","text":"a   b"}}` + "\n"
	var out lockedBuffer
	require.NoError(t, NewHeadlessCLI(h, strings.NewReader(input), &out).Run(context.Background()))

	var found bool
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &raw))
		if string(raw["id"]) != `"1"` {
			continue
		}
		var sent SendResult
		require.NoError(t, json.Unmarshal(raw["data"], &sent))
		assert.Equal(t, "a   b", sent.Message.Text)
		found = true
	}
	assert.True(t, found, "no response for the send request")
}

func TestHeadlessCLI_ReadErrorStopsLoop(t *testing.T) {
	svc := newTestServices(t)
	h := NewCommandHandler(svc, "alice")

	readErr := errors.New("stdin closed unexpectedly")
	var out lockedBuffer
	done := make(chan error, 1)
	go func() {
		done <- NewHeadlessCLI(h, iotest.ErrReader(readErr), &out).Run(context.Background())
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, readErr)
	case <-time.After(2 * time.Second):
		t.Fatal("headless loop kept running after a read error")
	}
	assert.Contains(t, out.String(), "read error")
}

// Missing profiles and mirrors are looked up along the way; nothing but
// JSON lines may reach stdout.
func TestHeadlessCLI_StdoutStaysJSON(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	captured := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(r)
		captured <- string(data)
	}()

	svc := newTestServices(t)
	h := NewCommandHandler(svc, "alice")
	input := strings.Join([]string{
		`{"id":"1","command":"send","params":{"peer":"bob","text":"hi"}}`,
		`{"id":"2","command":"name","params":{"participant_id":"nobody"}}`,
		`{"id":"3","command":"dispose","params":{"peer":"carol"}}`,
	}, "\n") + "\n"
	runErr := NewHeadlessCLI(h, strings.NewReader(input), os.Stdout).Run(context.Background())

	os.Stdout = stdout
	require.NoError(t, w.Close())
	require.NoError(t, runErr)
	text := <-captured

	lines := 0
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		lines++
		assert.True(t, json.Valid(scanner.Bytes()), "non-JSON stdout line: %q", scanner.Text())
	}
	assert.GreaterOrEqual(t, lines, 4)
}

func TestInteractiveCLI_Session(t *testing.T) {
	svc := newTestServices(t)
	h := NewCommandHandler(svc, "alice")

	input := "/contact bob Bob\n/send bob hi\n/ls\n/nope\n/q\n"
	var out lockedBuffer
	cli := NewInteractiveCLI(h, strings.NewReader(input), &out)
	require.NoError(t, cli.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Signed in as alice (alice)")
	assert.Contains(t, text, "Contact added. Conversation: alice_bob")
	assert.Contains(t, text, "Message sent!")
	assert.Contains(t, text, "1. Bob")
	assert.Contains(t, text, "Last: hi")
	assert.Contains(t, text, "Error: unknown command: nope")
	assert.Contains(t, text, "Goodbye!")
}
