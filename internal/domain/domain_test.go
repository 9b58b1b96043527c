package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

func TestNewConversationID(t *testing.T) {
	ab, err := NewConversationID("u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, ConversationID("u1_u2"), ab)

	ba, err := NewConversationID("u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	_, err = NewConversationID("u1", "u1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidIdentity)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeInvalidIdentity))

	_, err = NewConversationID("", "u1")
	assert.True(t, appErrors.IsCode(err, appErrors.CodeInvalidIdentity))
}

func TestSortByCreatedAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := []*Message{
		{ID: "c", CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", CreatedAt: base},
		{ID: "b2", CreatedAt: base.Add(time.Second)},
		{ID: "b1", CreatedAt: base.Add(time.Second)},
	}
	SortByCreatedAt(msgs)
	var ids []MessageID
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []MessageID{"a", "b1", "b2", "c"}, ids)
}

func TestSortByRecency(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mirrors := []*Mirror{
		{ConversationID: "old", UpdatedAt: base},
		{ConversationID: "new", UpdatedAt: base.Add(time.Minute)},
	}
	SortByRecency(mirrors)
	assert.Equal(t, ConversationID("new"), mirrors[0].ConversationID)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "conversations-by-owner/u1/u1_u2", MirrorPath("u1", "u1_u2"))
	assert.Equal(t, "messages/u1_u2", MessagesPath("u1_u2"))
	assert.True(t, PathWithin("messages/u1_u2/m1", "messages/u1_u2"))
	assert.True(t, PathWithin("messages/u1_u2", "messages/u1_u2"))
	assert.False(t, PathWithin("messages/u1_u22/m1", "messages/u1_u2"))
}

func TestChangeFeed_PrefixRouting(t *testing.T) {
	feed := NewChangeFeed()
	mine := feed.Watch(InboxPath("u1"))
	all := feed.Watch(InboxRoot)

	feed.Publish(Change{Path: MirrorPath("u2", "u1_u2"), Kind: ChangeKindSet})
	feed.Publish(Change{Path: MirrorPath("u1", "u1_u2"), Kind: ChangeKindRemoved})

	got := <-mine
	assert.Equal(t, MirrorPath("u1", "u1_u2"), got.Path)
	assert.Equal(t, ChangeKindRemoved, got.Kind)
	assert.False(t, got.EventTime.IsZero())
	assert.Len(t, all, 2)

	feed.Unwatch(mine)
	_, open := <-mine
	assert.False(t, open)
}

func TestChangeFeed_PublishNeverBlocks(t *testing.T) {
	feed := NewChangeFeed()
	ch := feed.Watch(MessagesRoot)
	for i := 0; i < watchBuffer*3; i++ {
		feed.Publish(Change{Path: MessagesPath("c"), Kind: ChangeKindSet})
	}
	assert.Len(t, ch, watchBuffer)
}
