// Package store is the typed adapter over a raw string key/value backend.
//
// Values are JSON encoded. Entries that can't be decoded read as absent, and
// whole-store snapshots are flat JSON objects mapping each key to its raw
// stored text.
package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Backend is a raw string key/value store.
type Backend interface {
	GetRaw(ctx context.Context, key string) (value string, ok bool, err error)
	SetRaw(ctx context.Context, key, value string) error
	DeleteRaw(ctx context.Context, key string) error
	Entries(ctx context.Context) (map[string]string, error)
	// PutEntries writes every pair or none of them.
	PutEntries(ctx context.Context, entries map[string]string) error
}

// PersistenceError reports a failed read or write against the backend.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// RestoreError reports a snapshot that could not be applied. The store is
// left untouched when it is returned.
type RestoreError struct {
	Err error
}

func (e *RestoreError) Error() string { return fmt.Sprintf("restore snapshot: %v", e.Err) }

func (e *RestoreError) Unwrap() error { return e.Err }

var errEmptySnapshot = errors.New("snapshot is empty")

// Store provides typed access to a Backend.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Set encodes value as JSON and stores it under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := s.backend.SetRaw(ctx, key, string(b)); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}

// Get decodes the value stored under key. Missing and undecodable entries
// both report ok=false; only backend failures return an error.
func Get[T any](ctx context.Context, s *Store, key string) (value T, ok bool, err error) {
	raw, found, err := s.backend.GetRaw(ctx, key)
	if err != nil {
		return value, false, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	if !found || raw == "" {
		return value, false, nil
	}
	var decoded T
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return value, false, nil
	}
	return decoded, true, nil
}

// Revision fingerprints the raw value under key so callers can tell whether
// another writer replaced it. An absent key has revision "".
func (s *Store) Revision(ctx context.Context, key string) (string, error) {
	raw, found, err := s.backend.GetRaw(ctx, key)
	if err != nil {
		return "", &PersistenceError{Op: "read", Key: key, Err: err}
	}
	if !found {
		return "", nil
	}
	return Digest(raw), nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.DeleteRaw(ctx, key); err != nil {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// BackupAll returns a snapshot of every key and its raw value.
func (s *Store) BackupAll(ctx context.Context) (string, error) {
	entries, err := s.backend.Entries(ctx)
	if err != nil {
		return "", &PersistenceError{Op: "backup", Err: err}
	}
	if entries == nil {
		entries = map[string]string{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", &PersistenceError{Op: "backup", Err: err}
	}
	return string(b), nil
}

// RestoreAll writes every pair of a snapshot produced by BackupAll,
// overwriting matching keys. Keys absent from the snapshot are kept.
func (s *Store) RestoreAll(ctx context.Context, snapshot string) error {
	entries, err := ParseSnapshot(snapshot)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := s.backend.PutEntries(ctx, entries); err != nil {
		return &PersistenceError{Op: "restore", Err: err}
	}
	return nil
}

// ParseSnapshot decodes a snapshot without applying it.
func ParseSnapshot(snapshot string) (map[string]string, error) {
	if snapshot == "" {
		return nil, &RestoreError{Err: errEmptySnapshot}
	}
	var entries map[string]string
	if err := json.Unmarshal([]byte(snapshot), &entries); err != nil {
		return nil, &RestoreError{Err: err}
	}
	if entries == nil {
		return nil, &RestoreError{Err: errors.New("snapshot is not an object")}
	}
	return entries, nil
}

// Digest returns the hex BLAKE2b-256 fingerprint of a snapshot.
func Digest(snapshot string) string {
	sum := blake2b.Sum256([]byte(snapshot))
	return hex.EncodeToString(sum[:])
}
