package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
	testutil "github.com/trezcool/schoolconnect/tests"
)

func TestMemory_Namespace(t *testing.T) {
	ctx := context.Background()
	root := NewMemory()
	a := root.Namespace("a")
	b := root.Namespace("b")

	require.NoError(t, a.Set(ctx, "user", []byte("alice")))
	require.NoError(t, a.Set(ctx, "theme", []byte("dark")))
	require.NoError(t, b.Set(ctx, "user", []byte("bob")))

	v, err := a.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "alice", string(v))

	v, err = b.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "bob", string(v))

	require.NoError(t, a.Clear(ctx))
	_, err = a.Get(ctx, "user")
	assert.Equal(t, session.ErrNoValue, err)
	assert.Equal(t, 0, a.(*Memory).Len())
	assert.Equal(t, 1, b.(*Memory).Len())

	require.NoError(t, b.Remove(ctx, "user"))
	require.NoError(t, b.Remove(ctx, "user"))
	assert.Equal(t, 0, root.Len())
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "session.json")

	f := NewFile(path)
	_, err := f.Get(ctx, "user")
	assert.Equal(t, session.ErrNoValue, err)

	require.NoError(t, f.Set(ctx, "user", []byte(`{"id":"1"}`)))
	require.NoError(t, f.Set(ctx, "theme", []byte("dark")))

	// a fresh handle sees what the previous one wrote
	reopened := NewFile(path)
	v, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(v))

	require.NoError(t, reopened.Remove(ctx, "user"))
	_, err = f.Get(ctx, "user")
	assert.Equal(t, session.ErrNoValue, err)

	require.NoError(t, f.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, f.Clear(ctx), "clearing twice")
}

func TestFile_corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	ctx := context.Background()
	f := NewFile(path)
	_, err := f.Get(ctx, "user")
	assert.True(t, errors.Is(err, session.ErrCorruptValue))

	store := session.NewStore(f, testutil.NewLogger())
	require.NoError(t, store.Load(ctx))
	assert.False(t, store.IsSignedIn())

	// the next write replaces the unreadable file
	require.NoError(t, f.Set(ctx, "user", []byte(`{"id":"1"}`)))
	v, err := f.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(v))
}

func TestFile_sessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	dir := session.DemoDirectory(nil)

	store := session.NewStore(NewFile(path), testutil.NewLogger())
	require.NoError(t, store.Load(ctx))
	assert.False(t, store.IsSignedIn())

	_, err := session.NewAuthenticator(dir, store).SignIn(ctx, "Teacher@Example.com", "pwd")
	require.NoError(t, err)

	// cold start
	restored := session.NewStore(NewFile(path), testutil.NewLogger())
	require.NoError(t, restored.Load(ctx))
	usr, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, "2", usr.ID)
	assert.Equal(t, session.RoleTeacher, usr.Role)

	require.NoError(t, session.NewAuthenticator(dir, restored).SignOut(ctx))
	again := session.NewStore(NewFile(path), testutil.NewLogger())
	require.NoError(t, again.Load(ctx))
	assert.False(t, again.IsSignedIn())
}

// TestRedis_Namespace runs against the configured Redis server and is skipped when none answers.
func TestRedis_Namespace(t *testing.T) {
	client := NewRedisClient(core.NewTestConfig())
	t.Cleanup(func() { _ = client.Close() })

	root := NewRedis(client, "test-"+uuid.NewString()+":", time.Minute)
	pingCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := root.Ping(pingCtx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	ctx := context.Background()
	a := root.Namespace("a")
	b := root.Namespace("b")
	t.Cleanup(func() { _ = root.Clear(ctx) })

	require.NoError(t, a.Set(ctx, "user", []byte("alice")))
	require.NoError(t, b.Set(ctx, "user", []byte("bob")))

	require.NoError(t, a.Clear(ctx))
	_, err := a.Get(ctx, "user")
	assert.Equal(t, session.ErrNoValue, err)

	v, err := b.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "bob", string(v))

	require.NoError(t, b.Remove(ctx, "user"))
	_, err = b.Get(ctx, "user")
	assert.Equal(t, session.ErrNoValue, err)

	assert.Error(t, NewRedis(client, "", 0).Clear(ctx))
}
