package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

// DefaultKey is the storage key holding the serialized user record.
const DefaultKey = "user"

// ErrNoValue is returned by a Storage when the key does not exist.
var ErrNoValue = errors.New("no value for key")

// ErrCorruptValue is returned (wrapped) by a Storage whose persisted data cannot be decoded.
var ErrCorruptValue = errors.New("unreadable stored value")

type State int

const (
	StateLoading State = iota
	StateSignedOut
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSignedOut:
		return "signed_out"
	case StateSignedIn:
		return "signed_in"
	default:
		return ""
	}
}

// Storage is a durable key-value namespace.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key of the namespace.
	Clear(ctx context.Context) error
}

type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClearOnSignOut controls whether Clear also wipes the whole storage namespace (default true).
func WithClearOnSignOut(clearAll bool) Option {
	return func(s *Store) { s.clearAll = clearAll }
}

// Store holds the current session and mirrors it to a Storage.
// It starts Loading; Load moves it to SignedIn or SignedOut, then Set and Clear alternate between the two.
type Store struct {
	mu       sync.RWMutex
	storage  Storage
	logger   core.Logger
	key      string
	clearAll bool

	state State
	user  *User
}

func NewStore(storage Storage, logger core.Logger, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		logger:   logger,
		key:      DefaultKey,
		clearAll: true,
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the session persisted by a previous run.
// An unreadable record is logged and treated as no session.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.storage.Get(ctx, s.key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.state = StateSignedOut

	if err != nil {
		if errors.Is(err, ErrNoValue) {
			return nil
		}
		if errors.Is(err, ErrCorruptValue) {
			s.logger.Warn(fmt.Sprintf("discarding unreadable session storage: %v", err), err)
			return nil
		}
		s.logger.Error(fmt.Sprintf("loading session: %v", err), err)
		return errors.Wrap(err, "reading session")
	}

	var usr User
	if err = json.Unmarshal(data, &usr); err != nil {
		s.logger.Warn(fmt.Sprintf("discarding unreadable session record: %v", err), err)
		return nil
	}
	s.user = &usr
	s.state = StateSignedIn
	return nil
}

// Set persists usr and marks the session signed in.
func (s *Store) Set(ctx context.Context, usr User) error {
	data, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = s.storage.Set(ctx, s.key, data); err != nil {
		return errors.Wrap(err, "writing session")
	}

	s.mu.Lock()
	s.user = &usr
	s.state = StateSignedIn
	s.mu.Unlock()
	return nil
}

// Clear removes the persisted record then, unless disabled, the rest of the storage namespace.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Remove(ctx, s.key); err != nil && !errors.Is(err, ErrNoValue) {
		return errors.Wrap(err, "removing session")
	}

	s.mu.Lock()
	s.user = nil
	s.state = StateSignedOut
	s.mu.Unlock()

	if s.clearAll {
		if err := s.storage.Clear(ctx); err != nil {
			return errors.Wrap(err, "clearing storage")
		}
	}
	return nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, if any.
func (s *Store) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Store) IsSignedIn() bool {
	return s.State() == StateSignedIn
}

func (s *Store) IsLoading() bool {
	return s.State() == StateLoading
}
