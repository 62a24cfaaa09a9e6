package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
)

type mapStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	failSet bool
	getErr  error
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: make(map[string][]byte)}
}

func (m *mapStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoValue
	}
	return v, nil
}

func (m *mapStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *mapStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

type nopLogger struct{ std *log.Logger }

func (l nopLogger) Debug(string, ...interface{}) {}
func (l nopLogger) Info(string, ...interface{})  {}
func (l nopLogger) Warn(string, ...interface{})  {}
func (l nopLogger) Error(string, ...interface{}) {}
func (l nopLogger) Fatal(msg string, _ ...interface{}) {
	l.std.Fatal(msg)
}

var logger core.Logger = nopLogger{std: log.New(io.Discard, "", 0)}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "student", want: RoleStudent},
		{in: " Teacher ", want: RoleTeacher},
		{in: "ADMIN", want: RoleAdmin},
		{in: "parent", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_JSON(t *testing.T) {
	data, err := json.Marshal(User{ID: "2", Role: RoleTeacher})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"2","name":"","email":"","role":"teacher"}`, string(data))

	var usr User
	assert.Error(t, json.Unmarshal([]byte(`{"id":"9","role":"janitor"}`), &usr))

	_, err = json.Marshal(Role(42))
	assert.Error(t, err)
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	usr := DemoDirectory(nil)["teacher@example.com"].User
	raw, _ := json.Marshal(usr)

	tests := []struct {
		name      string
		stored    []byte
		getErr    error
		wantState State
		wantUser  bool
		wantErr   bool
	}{
		{name: "no record", wantState: StateSignedOut},
		{name: "valid record", stored: raw, wantState: StateSignedIn, wantUser: true},
		{name: "corrupt record", stored: []byte("{not json"), wantState: StateSignedOut},
		{name: "corrupt storage", getErr: fmt.Errorf("decoding session.json: %w", ErrCorruptValue), wantState: StateSignedOut},
		{name: "storage failure", getErr: errors.New("permission denied"), wantState: StateSignedOut, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMapStorage()
			storage.getErr = tt.getErr
			if tt.stored != nil {
				storage.data[DefaultKey] = tt.stored
			}
			store := NewStore(storage, logger)
			assert.Equal(t, StateLoading, store.State())
			assert.Equal(t, RouteLoading, Guard(store.State()))

			err := store.Load(ctx)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, store.State())

			got, ok := store.User()
			assert.Equal(t, tt.wantUser, ok)
			if tt.wantUser {
				assert.Equal(t, usr, got)
			}
		})
	}
}

func TestAuthenticator_SignIn(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	tests := []struct {
		name     string
		dir      StaticDirectory
		email    string
		password string
		wantID   string
		wantErr  error
		wantVal  bool
	}{
		{name: "student, any password", dir: DemoDirectory(nil), email: "student@example.com", password: "x", wantID: "1"},
		{name: "email is normalized", dir: DemoDirectory(nil), email: "  Teacher@Example.com ", password: "lol", wantID: "2"},
		{name: "admin", dir: DemoDirectory(nil), email: "admin@example.com", password: "pwd", wantID: "3"},
		{name: "unknown email", dir: DemoDirectory(nil), email: "nobody@example.com", password: "x", wantErr: ErrInvalidCredentials},
		{name: "empty password", dir: DemoDirectory(nil), email: "student@example.com", wantVal: true},
		{name: "empty email", dir: DemoDirectory(nil), password: "x", wantVal: true},
		{name: "hashed: wrong password", dir: DemoDirectory(hash), email: "admin@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "hashed: right password", dir: DemoDirectory(hash), email: "admin@example.com", password: "s3cret", wantID: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMapStorage()
			store := NewStore(storage, logger)
			require.NoError(t, store.Load(ctx))

			usr, err := NewAuthenticator(tt.dir, store).SignIn(ctx, tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
				assert.Equal(t, StateSignedOut, store.State())
				assert.Empty(t, storage.data)
			case tt.wantVal:
				assert.True(t, core.IsValidationError(err))
				assert.Equal(t, StateSignedOut, store.State())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, usr.ID)
				assert.Equal(t, StateSignedIn, store.State())
				assert.Equal(t, RouteApp, Guard(store.State()))
				assert.Contains(t, storage.data, DefaultKey)
			}
		})
	}
}

func TestAuthenticator_SignIn_storageFailure(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	storage.failSet = true
	store := NewStore(storage, logger)
	require.NoError(t, store.Load(ctx))

	_, err := NewAuthenticator(DemoDirectory(nil), store).SignIn(ctx, "student@example.com", "x")
	assert.Error(t, err)
	assert.False(t, store.IsSignedIn())
}

func TestAuthenticator_SignOut(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	storage.data["preferences"] = []byte(`{"theme":"dark"}`)

	store := NewStore(storage, logger)
	require.NoError(t, store.Load(ctx))
	auth := NewAuthenticator(DemoDirectory(nil), store)

	_, err := auth.SignIn(ctx, "student@example.com", "x")
	require.NoError(t, err)
	require.NoError(t, auth.SignOut(ctx))

	assert.Equal(t, StateSignedOut, store.State())
	assert.Equal(t, RouteWelcome, Guard(store.State()))
	assert.Empty(t, storage.data, "sign out clears the whole namespace")

	// cold start after sign out
	reloaded := NewStore(storage, logger)
	require.NoError(t, reloaded.Load(ctx))
	assert.False(t, reloaded.IsSignedIn())
}

func TestStore_Clear_keepNamespace(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	storage.data["other"] = []byte("1")

	store := NewStore(storage, logger, WithKey("session:abc"), WithClearOnSignOut(false))
	require.NoError(t, store.Set(ctx, User{ID: "1", Role: RoleStudent}))
	assert.Contains(t, storage.data, "session:abc")

	require.NoError(t, store.Clear(ctx))
	assert.NotContains(t, storage.data, "session:abc")
	assert.Contains(t, storage.data, "other")
}

func TestGuard(t *testing.T) {
	assert.Equal(t, RouteLoading, Guard(StateLoading))
	assert.Equal(t, RouteWelcome, Guard(StateSignedOut))
	assert.Equal(t, RouteApp, Guard(StateSignedIn))
}
