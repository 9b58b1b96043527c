package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/repository"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	s, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestServices(t *testing.T) (*Services, *repository.Store) {
	t.Helper()
	store := newTestStore(t)
	svc := New(store, zerolog.Nop())
	t.Cleanup(svc.Sessions.CloseAll)
	return svc, store
}

// flakyMirrors fails Upsert for one owner once armed.
type flakyMirrors struct {
	repository.MirrorRepository
	failOwner domain.ParticipantID
	armed     atomic.Bool
}

func (f *flakyMirrors) Upsert(ctx context.Context, m *domain.Mirror) error {
	if f.armed.Load() && m.OwnerID == f.failOwner {
		return appErrors.StoreUnavailable(errors.New("connection reset"))
	}
	return f.MirrorRepository.Upsert(ctx, m)
}

func receiveMessage(t *testing.T, st *MessageStream) *domain.Message {
	t.Helper()
	select {
	case m, ok := <-st.C():
		require.True(t, ok, "stream closed")
		return m
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func receiveSnapshot(t *testing.T, st *InboxStream) []*domain.Mirror {
	t.Helper()
	select {
	case snap, ok := <-st.C():
		require.True(t, ok, "stream closed")
		return snap
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
