// Package storage provides a namespaced key-value store for UI state
// (table preferences, last-used form values, dismissed hints).
//
// Every key is written as prefix+key, and Clear only removes keys under
// the store's prefix, so a Store never touches entries it does not own.
// Values are JSON encoded.
//
// Backend failures never panic. They are logged and returned wrapped in
// ErrUnavailable, which lets callers tell "no value stored" (found=false,
// err=nil) apart from "storage is not working". Callers that only want
// best-effort behavior can ignore the error.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultPrefix namespaces all FraudGuard keys.
const DefaultPrefix = "fg_"

// ErrUnavailable wraps every backend failure.
var ErrUnavailable = errors.New("storage unavailable")

// ErrInvalidKey is returned for empty keys.
var ErrInvalidKey = errors.New("storage key must not be empty")

// Backend is the raw key-value persistence used by a Store. Keys passed
// to a Backend are already prefixed.
type Backend interface {
	Put(ctx context.Context, key string, value []byte) error
	Fetch(ctx context.Context, key string) (value []byte, found bool, err error)
	Delete(ctx context.Context, key string) error
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Store is a namespaced, JSON-encoding view over a Backend.
type Store struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
}

// New returns a Store writing keys as prefix+key. An empty prefix
// defaults to DefaultPrefix.
func New(backend Backend, prefix string, logger *slog.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, prefix: prefix, logger: logger}
}

// Prefix returns the namespace applied to every key.
func (s *Store) Prefix() string { return s.prefix }

// Scope returns a child store whose keys live under prefix+name+":".
// Clearing the child leaves the parent's other keys alone.
func (s *Store) Scope(name string) *Store {
	return &Store{
		backend: s.backend,
		prefix:  s.prefix + name + ":",
		logger:  s.logger,
	}
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage encode %q: %w", key, err)
	}
	if err := s.backend.Put(ctx, s.prefix+key, data); err != nil {
		return s.unavailable("set", key, err)
	}
	return nil
}

// Get decodes the value stored under key into dst. It reports false with
// a nil error when nothing is stored.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := s.GetRaw(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("storage: stored value is not valid for destination",
			"key", s.prefix+key,
			"error", err,
		)
		return false, fmt.Errorf("storage decode %q: %w", key, err)
	}
	return true, nil
}

// GetRaw returns the JSON stored under key.
func (s *Store) GetRaw(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if key == "" {
		return nil, false, ErrInvalidKey
	}
	data, found, err := s.backend.Fetch(ctx, s.prefix+key)
	if err != nil {
		return nil, false, s.unavailable("get", key, err)
	}
	if !found {
		return nil, false, nil
	}
	return json.RawMessage(data), true, nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		return s.unavailable("remove", key, err)
	}
	return nil
}

// Keys lists the keys of this store without the prefix.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	full, err := s.backend.KeysWithPrefix(ctx, s.prefix)
	if err != nil {
		return nil, s.unavailable("keys", "", err)
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
	}
	return keys, nil
}

// Clear removes every key under the prefix and nothing else.
func (s *Store) Clear(ctx context.Context) error {
	full, err := s.backend.KeysWithPrefix(ctx, s.prefix)
	if err != nil {
		return s.unavailable("clear", "", err)
	}

	removed := 0
	for _, k := range full {
		if !strings.HasPrefix(k, s.prefix) {
			continue
		}
		if err := s.backend.Delete(ctx, k); err != nil {
			return s.unavailable("clear", strings.TrimPrefix(k, s.prefix), err)
		}
		removed++
	}

	s.logger.Debug("storage cleared", "prefix", s.prefix, "removed", removed)
	return nil
}

func (s *Store) unavailable(op, key string, err error) error {
	s.logger.Warn("storage unavailable",
		"op", op,
		"key", s.prefix+key,
		"error", err,
	)
	return fmt.Errorf("%w: %s %q: %v", ErrUnavailable, op, key, err)
}
