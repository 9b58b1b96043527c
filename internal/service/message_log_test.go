package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/needsclan/Gk1/internal/domain"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

func TestMessageLog_AppendRejectsBlankText(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Log.Append(ctx, "a_b", "a", text)
		assert.ErrorIs(t, err, appErrors.ErrEmptyMessage)
	}

	all, err := svc.Log.List(ctx, "a_b")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMessageLog_AppendStoresTrimmedText(t *testing.T) {
	svc, _ := newTestServices(t)

	msg, err := svc.Log.Append(context.Background(), "a_b", "a", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestMessageLog_SubscribeReplaysThenFollows(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	first, err := svc.Log.Append(ctx, "a_b", "a", "hi")
	require.NoError(t, err)
	_, err = svc.Log.Append(ctx, "a_c", "a", "other conversation")
	require.NoError(t, err)

	st := svc.Log.Subscribe(ctx, "a_b")
	defer st.Close()

	got := receiveMessage(t, st)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, domain.ParticipantID("a"), got.SenderID)

	second, err := svc.Log.Append(ctx, "a_b", "b", "hello back")
	require.NoError(t, err)
	got = receiveMessage(t, st)
	assert.Equal(t, second.ID, got.ID)
}

func TestMessageLog_SameSenderOrderPreserved(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	st := svc.Log.Subscribe(ctx, "a_b")
	defer st.Close()

	var sent []domain.MessageID
	for _, text := range []string{"one", "two", "three", "four"} {
		m, err := svc.Log.Append(ctx, "a_b", "a", text)
		require.NoError(t, err)
		sent = append(sent, m.ID)
	}

	var got []domain.MessageID
	for len(got) < len(sent) {
		got = append(got, receiveMessage(t, st).ID)
	}
	assert.Equal(t, sent, got)
}

func TestMessageLog_CloseStopsDelivery(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	st := svc.Log.Subscribe(ctx, "a_b")
	st.Close()
	st.Close()

	select {
	case <-st.Done():
	case <-time.After(waitFor):
		t.Fatal("stream did not stop")
	}

	_, err := svc.Log.Append(ctx, "a_b", "a", "after close")
	require.NoError(t, err)

	_, open := <-st.C()
	assert.False(t, open)
}

func TestMessageLog_ContextCancelStopsStream(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())

	st := svc.Log.Subscribe(ctx, "a_b")
	cancel()

	select {
	case <-st.Done():
	case <-time.After(waitFor):
		t.Fatal("stream did not stop on cancel")
	}
}

func TestMessageLog_PagesThroughLongLogs(t *testing.T) {
	svc, _ := newTestServices(t)
	svc.Log.pageSize = 3
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := svc.Log.Append(ctx, "a_b", "a", "msg")
		require.NoError(t, err)
	}

	all, err := svc.Log.List(ctx, "a_b")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	st := svc.Log.Subscribe(ctx, "a_b")
	defer st.Close()
	seen := map[domain.MessageID]bool{}
	for len(seen) < 8 {
		seen[receiveMessage(t, st).ID] = true
	}
}

func TestMessageLog_PurgeRemovesEverything(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Log.Append(ctx, "a_b", "a", "hi")
	require.NoError(t, err)
	require.NoError(t, svc.Log.Purge(ctx, "a_b"))

	all, err := svc.Log.List(ctx, "a_b")
	require.NoError(t, err)
	assert.Empty(t, all)
}
