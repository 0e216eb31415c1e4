// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session persists in-progress wizard drafts.
//
// A session records where an applicant is in the classification wizard:
// which code is focused, which code (if any) has been selected, and the
// drill-down trail that got them there. Drafts survive server restarts
// and expire automatically after a period of inactivity, so an abandoned
// wizard never needs manual cleanup.
//
// Sessions are stored in BadgerDB as JSON documents under the "session/"
// key prefix. Every Save rewrites the entry with a fresh TTL, giving
// sliding expiry: activity keeps a draft alive, silence lets it lapse.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/gangway/services/intake/storage/badger"
	dgbadger "github.com/dgraph-io/badger/v4"
)

// -----------------------------------------------------------------------------
// Session Errors
// -----------------------------------------------------------------------------

var (
	// ErrStoreClosed is returned when operations are called on a closed store.
	ErrStoreClosed = errors.New("session store is closed")

	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNilSession is returned when attempting to save a nil session.
	ErrNilSession = errors.New("session must not be nil")

	// ErrEmptySessionID is returned when a session ID is empty.
	ErrEmptySessionID = errors.New("session id must not be empty")

	// ErrNilContext is returned when a nil context is passed to a store method.
	ErrNilContext = errors.New("context must not be nil")
)

// -----------------------------------------------------------------------------
// Session Type
// -----------------------------------------------------------------------------

// Session is a wizard draft for one applicant.
//
// Description:
//
//	Captures the wizard position (focused code, trail) and the final
//	selection once one is made. The dataset version pins the draft to
//	the taxonomy it was started against, so a reload mid-session can
//	be detected by the handlers.
type Session struct {
	// ID uniquely identifies the session. Assigned by the store.
	ID string `json:"id"`

	// CreatedAt is when the session was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time of the last Save.
	UpdatedAt time.Time `json:"updated_at"`

	// DatasetVersion is the taxonomy version the wizard was opened against.
	DatasetVersion string `json:"dataset_version"`

	// FocusedCode is the code currently highlighted in the cascade.
	// Empty until the applicant first drills in.
	FocusedCode string `json:"focused_code,omitempty"`

	// SelectedCode is the committed classification, if any.
	// Empty until the applicant selects a leaf.
	SelectedCode string `json:"selected_code,omitempty"`

	// Trail is the ancestor chain of the committed selection, root first.
	// Focus changes do not rewrite it.
	Trail []string `json:"trail,omitempty"`
}

// -----------------------------------------------------------------------------
// Store Interface
// -----------------------------------------------------------------------------

// Store persists wizard sessions.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Create allocates a new session pinned to a dataset version.
	//
	// Inputs:
	//   - ctx: Context for cancellation. Must not be nil.
	//   - datasetVersion: Taxonomy version the wizard opens against.
	//
	// Outputs:
	//   - *Session: Freshly persisted session with a new ID.
	//   - error: Non-nil if the write fails.
	Create(ctx context.Context, datasetVersion string) (*Session, error)

	// Get returns the session for an ID.
	//
	// Get does not extend the session's expiry; only Save does.
	//
	// Outputs:
	//   - *Session: The stored session.
	//   - error: ErrSessionNotFound if no such session exists or it expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Save persists a session and re-arms its expiry.
	//
	// UpdatedAt is set to the current time before writing.
	//
	// Outputs:
	//   - error: Non-nil if validation or the write fails.
	Save(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored sessions.
	//
	// Sessions just past their idle deadline may still be counted until
	// BadgerDB purges them.
	Count(ctx context.Context) (int, error)

	// Close marks the store closed. The underlying database is owned by
	// the caller and is not closed.
	Close() error
}

// -----------------------------------------------------------------------------
// BadgerStore Implementation
// -----------------------------------------------------------------------------

const sessionKeyPrefix = "session/"

// DefaultTTL is how long an idle session survives before expiring.
const DefaultTTL = 24 * time.Hour

// BadgerStore implements Store using BadgerDB.
//
// Description:
//
//	Each session is one JSON value under "session/{id}". Idle expiry is
//	enforced on read against UpdatedAt, so it is exact regardless of
//	TTL length; BadgerDB's native entry TTL (second granularity) is
//	armed alongside it to purge lapsed entries from storage.
//
// Thread Safety: Safe for concurrent use.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger

	closed atomic.Bool
}

// StoreOption configures a BadgerStore.
type StoreOption func(*BadgerStore)

// WithTTL overrides the idle expiry for sessions.
// A zero or negative TTL disables expiry entirely.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *BadgerStore) {
		s.ttl = ttl
	}
}

// WithStoreLogger sets the logger for store operations.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *BadgerStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewBadgerStore creates a session store over an open database.
//
// Inputs:
//
//	db - Open BadgerDB handle. The caller retains ownership and must
//	     keep it open for the lifetime of the store.
//	opts - Optional configuration.
//
// Outputs:
//
//	*BadgerStore - Ready-to-use store.
//	error - Non-nil if db is nil.
//
// Thread Safety: Safe for concurrent use.
func NewBadgerStore(db *badger.DB, opts ...StoreOption) (*BadgerStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}

	s := &BadgerStore{
		db:     db,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "session_store"))

	return s, nil
}

// Create allocates a new session pinned to a dataset version.
func (s *BadgerStore) Create(ctx context.Context, datasetVersion string) (*Session, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	ctx, span := otel.Tracer("session").Start(ctx, "session.Create",
		trace.WithAttributes(
			attribute.String("dataset_version", datasetVersion),
		),
	)
	defer span.End()

	now := time.Now().UTC()
	sess := &Session{
		ID:             uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
		DatasetVersion: datasetVersion,
	}

	if err := s.put(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(attribute.String("session_id", sess.ID))
	s.logger.Debug("session created",
		slog.String("session_id", sess.ID),
		slog.String("dataset_version", datasetVersion))

	return sess, nil
}

// Get returns the session for an ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Session, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if id == "" {
		return nil, ErrEmptySessionID
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	ctx, span := otel.Tracer("session").Start(ctx, "session.Get",
		trace.WithAttributes(
			attribute.String("session_id", id),
		),
	)
	defer span.End()

	var sess Session
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(s.key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})

	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("get session: %w", err)
	}

	// The precise idle deadline; the stored entry TTL only purges bytes.
	if s.ttl > 0 && time.Since(sess.UpdatedAt) > s.ttl {
		return nil, ErrSessionNotFound
	}

	return &sess, nil
}

// Save persists a session and re-arms its expiry.
func (s *BadgerStore) Save(ctx context.Context, sess *Session) error {
	if ctx == nil {
		return ErrNilContext
	}
	if sess == nil {
		return ErrNilSession
	}
	if sess.ID == "" {
		return ErrEmptySessionID
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}

	ctx, span := otel.Tracer("session").Start(ctx, "session.Save",
		trace.WithAttributes(
			attribute.String("session_id", sess.ID),
		),
	)
	defer span.End()

	sess.UpdatedAt = time.Now().UTC()

	if err := s.put(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("save session: %w", err)
	}

	s.logger.Debug("session saved",
		slog.String("session_id", sess.ID),
		slog.String("focused_code", sess.FocusedCode),
		slog.String("selected_code", sess.SelectedCode))

	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if id == "" {
		return ErrEmptySessionID
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}

	ctx, span := otel.Tracer("session").Start(ctx, "session.Delete",
		trace.WithAttributes(
			attribute.String("session_id", id),
		),
	)
	defer span.End()

	err := s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Delete(s.key(id))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Debug("session deleted", slog.String("session_id", id))
	return nil
}

// Count returns the number of stored sessions.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	if ctx == nil {
		return 0, ErrNilContext
	}
	if s.closed.Load() {
		return 0, ErrStoreClosed
	}

	ctx, span := otel.Tracer("session").Start(ctx, "session.Count")
	defer span.End()

	prefix := []byte(sessionKeyPrefix)
	count := 0

	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return 0, fmt.Errorf("count sessions: %w", err)
	}

	span.SetAttributes(attribute.Int("session_count", count))
	return count, nil
}

// Close marks the store closed. The underlying database is owned by the
// caller and is not closed.
func (s *BadgerStore) Close() error {
	s.closed.Store(true)
	return nil
}

// -----------------------------------------------------------------------------
// Private Helpers
// -----------------------------------------------------------------------------

func (s *BadgerStore) key(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

// put writes the session under its key, re-arming the TTL.
func (s *BadgerStore) put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(s.key(sess.ID), data)
		// BadgerDB truncates entry TTLs to whole seconds, so the stored
		// TTL serves as a purge deadline only. Get enforces the exact
		// idle expiry against UpdatedAt.
		if s.ttl >= time.Second {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// -----------------------------------------------------------------------------
// Compile-time Interface Compliance
// -----------------------------------------------------------------------------

var _ Store = (*BadgerStore)(nil)
