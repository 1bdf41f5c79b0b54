// Package session keeps per-viewing-context memory: what is playing, where
// playback is, and the latest movement reading. Every mutation is written
// through to the key/value store before it returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ErrPersistence wraps key/value failures. The in-memory value is still
// updated and stays authoritative.
var ErrPersistence = errors.New("session persistence failed")

type Store struct {
	// mu serializes read-merge-write per store so a merge never races a
	// concurrent upsert of the same context.
	mu     sync.Mutex
	cache  *cache.Cache
	kv     store.Store
	logger logger.ILogger
	now    func() time.Time
}

func NewStore(kv store.Store, log logger.ILogger) *Store {
	return &Store{
		cache:  cache.New(cache.NoExpiration, 0),
		kv:     kv,
		logger: log,
		now:    time.Now,
	}
}

// UpsertMetadata creates the session if absent, otherwise merges the
// non-zero fields of md.
func (s *Store) UpsertMetadata(ctx context.Context, contextID string, md entity.SessionMetadata) (entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.loadLocked(contextID)
	if md.ContentID != "" {
		sess.ContentID = md.ContentID
	}
	if md.PlatformTag != "" {
		sess.PlatformTag = md.PlatformTag
	}
	if md.PositionSeconds != nil {
		sess.PositionSeconds = *md.PositionSeconds
	}
	if md.DurationSeconds != nil {
		sess.DurationSeconds = *md.DurationSeconds
	}
	if md.Title != "" {
		sess.Title = md.Title
	}
	if md.URL != "" {
		sess.URL = md.URL
	}
	sess.LastUpdated = s.now()

	return sess, s.saveLocked(ctx, sess)
}

// RecordMovement attaches the latest movement reading, creating an empty
// session shell when the context is unknown.
func (s *Store) RecordMovement(ctx context.Context, contextID string, sample entity.MovementSample) (entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.loadLocked(contextID)
	m := sample
	sess.LastMovement = &m
	sess.LastUpdated = s.now()

	return sess, s.saveLocked(ctx, sess)
}

func (s *Store) Remove(ctx context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(contextID)
	if err := s.kv.Delete(ctx, store.SessionKey(contextID)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) Get(contextID string) (entity.Session, bool) {
	if x, found := s.cache.Get(contextID); found {
		return clone(x.(entity.Session)), true
	}
	return entity.Session{}, false
}

// List returns every session ordered by context id.
func (s *Store) List() []entity.Session {
	items := s.cache.Items()
	out := make([]entity.Session, 0, len(items))
	for _, item := range items {
		out = append(out, clone(item.Object.(entity.Session)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContextID < out[j].ContextID })
	return out
}

// Rehydrate loads persisted sessions into memory. Undecodable entries are
// skipped and logged.
func (s *Store) Rehydrate(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, store.SessionPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, key := range keys {
		var sess entity.Session
		if err := store.GetJSON(ctx, s.kv, key, &sess); err != nil {
			s.logger.Warn("SessionStore", "Skipping unreadable session", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if sess.ContextID == "" {
			sess.ContextID = strings.TrimPrefix(key, store.SessionPrefix)
		}
		s.cache.Set(sess.ContextID, sess, cache.NoExpiration)
		restored++
	}
	return restored, nil
}

func (s *Store) loadLocked(contextID string) entity.Session {
	if x, found := s.cache.Get(contextID); found {
		return clone(x.(entity.Session))
	}
	return entity.Session{ContextID: contextID}
}

func (s *Store) saveLocked(ctx context.Context, sess entity.Session) error {
	s.cache.Set(sess.ContextID, sess, cache.NoExpiration)
	if err := store.SetJSON(ctx, s.kv, store.SessionKey(sess.ContextID), sess); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func clone(s entity.Session) entity.Session {
	if s.LastMovement != nil {
		m := *s.LastMovement
		s.LastMovement = &m
	}
	return s
}
