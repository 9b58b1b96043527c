package repository

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/needsclan/Gk1/internal/domain"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

func openBackends(t *testing.T) map[string]*Store {
	t.Helper()
	stores := map[string]*Store{}
	for _, backend := range []string{BackendSQLite, BackendBolt} {
		s, err := Open(backend, filepath.Join(t.TempDir(), "store-"+backend+".db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		stores[backend] = s
	}
	return stores
}

func TestStore_MessageLogAppendAndList(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			conv := domain.ConversationID("alice_bob")

			first := domain.NewTextMessage(conv, "alice", "hi")
			require.NoError(t, s.Messages.Append(ctx, first))
			second := domain.NewTextMessage(conv, "bob", "hey")
			require.NoError(t, s.Messages.Append(ctx, second))
			other := domain.NewTextMessage("bob_carol", "bob", "elsewhere")
			require.NoError(t, s.Messages.Append(ctx, other))

			assert.NotEmpty(t, first.ID)
			assert.NotEqual(t, first.ID, second.ID)
			assert.Less(t, first.Seq, second.Seq)
			assert.True(t, second.CreatedAt.After(first.CreatedAt))

			all, err := s.Messages.ListSince(ctx, conv, 0, 0)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, first.ID, all[0].ID)
			assert.Equal(t, "hi", all[0].Text)
			assert.Equal(t, domain.ParticipantID("alice"), all[0].SenderID)
			assert.Equal(t, second.ID, all[1].ID)

			tail, err := s.Messages.ListSince(ctx, conv, first.Seq, 0)
			require.NoError(t, err)
			require.Len(t, tail, 1)
			assert.Equal(t, second.ID, tail[0].ID)

			limited, err := s.Messages.ListSince(ctx, conv, 0, 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)
		})
	}
}

func TestStore_DeleteByConversationKeepsSequenceMonotonic(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			conv := domain.ConversationID("alice_bob")

			before := domain.NewTextMessage(conv, "alice", "one")
			require.NoError(t, s.Messages.Append(ctx, before))
			kept := domain.NewTextMessage("bob_carol", "bob", "kept")
			require.NoError(t, s.Messages.Append(ctx, kept))

			require.NoError(t, s.Messages.DeleteByConversation(ctx, conv))
			require.NoError(t, s.Messages.DeleteByConversation(ctx, conv))

			left, err := s.Messages.ListSince(ctx, conv, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, left)

			untouched, err := s.Messages.ListSince(ctx, "bob_carol", 0, 0)
			require.NoError(t, err)
			assert.Len(t, untouched, 1)

			after := domain.NewTextMessage(conv, "alice", "two")
			require.NoError(t, s.Messages.Append(ctx, after))
			assert.Greater(t, after.Seq, kept.Seq)
		})
	}
}

func TestStore_MirrorUpsertGetDelete(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			conv := domain.ConversationID("alice_bob")

			got, err := s.Mirrors.Get(ctx, "alice", conv)
			require.NoError(t, err)
			assert.Nil(t, got)

			m := domain.NewMirror("alice", "bob", conv, "Bob", "")
			require.NoError(t, s.Mirrors.Upsert(ctx, m))
			firstStamp := m.UpdatedAt
			assert.False(t, firstStamp.IsZero())

			got, err = s.Mirrors.Get(ctx, "alice", conv)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, domain.ParticipantID("bob"), got.PeerID)
			assert.Equal(t, "Bob", got.PeerDisplayName)
			assert.Equal(t, "", got.LastMessagePreview)
			assert.True(t, got.UpdatedAt.Equal(firstStamp))

			replaced := domain.NewMirror("alice", "bob", conv, "Bobby", "hello")
			require.NoError(t, s.Mirrors.Upsert(ctx, replaced))
			got, err = s.Mirrors.Get(ctx, "alice", conv)
			require.NoError(t, err)
			assert.Equal(t, "Bobby", got.PeerDisplayName)
			assert.Equal(t, "hello", got.LastMessagePreview)
			assert.True(t, got.UpdatedAt.After(firstStamp))

			peer, err := s.Mirrors.Get(ctx, "bob", conv)
			require.NoError(t, err)
			assert.Nil(t, peer)

			require.NoError(t, s.Mirrors.Delete(ctx, "alice", conv))
			require.NoError(t, s.Mirrors.Delete(ctx, "alice", conv))
			got, err = s.Mirrors.Get(ctx, "alice", conv)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStore_ListByOwnerOrdersByRecency(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Mirrors.Upsert(ctx, domain.NewMirror("alice", "bob", "alice_bob", "Bob", "")))
			require.NoError(t, s.Mirrors.Upsert(ctx, domain.NewMirror("alice", "carol", "alice_carol", "Carol", "")))
			require.NoError(t, s.Mirrors.Upsert(ctx, domain.NewMirror("bob", "alice", "alice_bob", "Alice", "")))
			require.NoError(t, s.Mirrors.Upsert(ctx, domain.NewMirror("alice", "bob", "alice_bob", "Bob", "latest")))

			list, err := s.Mirrors.ListByOwner(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, domain.ConversationID("alice_bob"), list[0].ConversationID)
			assert.Equal(t, "latest", list[0].LastMessagePreview)
			assert.Equal(t, domain.ConversationID("alice_carol"), list[1].ConversationID)

			empty, err := s.Mirrors.ListByOwner(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_ProfilesRoundTrip(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()

			missing, err := s.Profiles.GetByID(ctx, "alice")
			require.NoError(t, err)
			assert.Nil(t, missing)

			require.NoError(t, s.Profiles.Upsert(ctx, &domain.Profile{ParticipantID: "alice", Username: "ali", Headline: "Baker"}))
			p, err := s.Profiles.GetByID(ctx, "alice")
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, "ali", p.Username)
			assert.Equal(t, "Baker", p.Headline)
		})
	}
}

func TestStore_WritesPublishChanges(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			inbox := s.Feed.Watch(domain.InboxPath("alice"))
			defer s.Feed.Unwatch(inbox)
			log := s.Feed.Watch(domain.MessagesPath("alice_bob"))
			defer s.Feed.Unwatch(log)

			require.NoError(t, s.Mirrors.Upsert(ctx, domain.NewMirror("alice", "bob", "alice_bob", "Bob", "")))
			require.NoError(t, s.Mirrors.Upsert(ctx, domain.NewMirror("bob", "alice", "alice_bob", "Alice", "")))
			require.NoError(t, s.Messages.Append(ctx, domain.NewTextMessage("alice_bob", "alice", "hi")))

			select {
			case c := <-inbox:
				assert.Equal(t, domain.MirrorPath("alice", "alice_bob"), c.Path)
				assert.Equal(t, domain.ChangeKindSet, c.Kind)
			case <-time.After(time.Second):
				t.Fatal("expected inbox change")
			}
			select {
			case c := <-inbox:
				t.Fatalf("unexpected change for another owner: %s", c.Path)
			default:
			}
			select {
			case c := <-log:
				assert.True(t, domain.PathWithin(c.Path, domain.MessagesPath("alice_bob")))
			case <-time.After(time.Second):
				t.Fatal("expected message change")
			}
		})
	}
}

func TestStore_ClosedStoreReportsUnavailable(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(backend, func(t *testing.T) {
			require.NoError(t, s.Close())
			_, err := s.Mirrors.ListByOwner(context.Background(), "alice")
			require.Error(t, err)
			assert.True(t, appErrors.IsCode(err, appErrors.CodeStoreUnavailable))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("redis", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
}

func TestGormLogger_SkipsMissingRows(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "quiet.db")), &gorm.Config{
		Logger: newGormLogger(&buf),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ProfileModel{}))

	var p ProfileModel
	err = db.First(&p, "participant_id = ?", "nobody").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len())

	repo := NewProfileRepository(db)
	missing, err := repo.GetByID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Zero(t, buf.Len())
}

func TestGormLogger_ReportsFailuresWithoutColour(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLogger(&buf)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM profiles", 0
	}, errors.New("disk I/O error"))

	assert.Contains(t, buf.String(), "disk I/O error")
	assert.NotContains(t, buf.String(), "\x1b[")
}
