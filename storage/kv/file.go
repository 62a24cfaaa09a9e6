package kv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/session"
)

// File persists values as a JSON object in a single file. It survives process restarts.
type File struct {
	path  string
	mutex sync.Mutex
}

var _ session.Storage = (*File)(nil)

func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultFilePath returns the per-user state file of the client CLI.
func DefaultFilePath(appName string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating config dir")
	}
	return filepath.Join(dir, appName, "session.json"), nil
}

// load returns the stored values. An undecodable file yields empty values along with
// an error wrapping session.ErrCorruptValue; the next save replaces it.
func (f *File) load() (map[string][]byte, error) {
	data := make(map[string][]byte)
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, errors.Wrapf(err, "reading %s", f.path)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err = json.Unmarshal(raw, &data); err != nil {
		return make(map[string][]byte), errors.Wrapf(session.ErrCorruptValue, "decoding %s: %v", f.path, err)
	}
	return data, nil
}

func (f *File) save(data map[string][]byte) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding state")
	}
	if err = os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(f.path))
	}
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, f.path), "replacing state file")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	v, ok := data[key]
	if !ok {
		return nil, session.ErrNoValue
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	data, err := f.load()
	if err != nil && !errors.Is(err, session.ErrCorruptValue) {
		return err
	}
	data[key] = value
	return f.save(data)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	data, err := f.load()
	if err != nil && !errors.Is(err, session.ErrCorruptValue) {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.save(data)
}

func (f *File) Clear(_ context.Context) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", f.path)
	}
	return nil
}
