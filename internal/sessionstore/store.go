package sessionstore

import (
	"context"
	"sync"

	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/pipeline"
)

type entry struct {
	version uint64
	result  *pipeline.Result
}

// Store is an in-memory, concurrency-safe session store.
type Store struct {
	versions sync.Map // Key: session id, Value: uint64 newest version begun
	results  sync.Map // Key: session id, Value: *entry
}

// New creates a new, empty session store.
func New() *Store {
	return &Store{}
}

// Begin records that version of session is about to be compiled. It returns
// false if a newer version has already begun, in which case the caller
// should not bother compiling.
func (s *Store) Begin(ctx context.Context, session string, version uint64) bool {
	for {
		cur, loaded := s.versions.LoadOrStore(session, version)
		if !loaded {
			return true
		}
		newest := cur.(uint64)
		switch {
		case newest > version:
			ctxlog.FromContext(ctx).Debug("Ignoring stale canvas version.", "session", session, "version", version, "newest", newest)
			return false
		case newest == version:
			return true
		}
		if s.versions.CompareAndSwap(session, cur, version) {
			return true
		}
	}
}

// Complete stores the result compiled for version. It returns false, and
// discards the result, if a newer version has begun or completed since.
func (s *Store) Complete(ctx context.Context, session string, version uint64, res *pipeline.Result) bool {
	logger := ctxlog.FromContext(ctx)
	if newest, ok := s.versions.Load(session); ok && newest.(uint64) > version {
		logger.Debug("Discarding superseded result.", "session", session, "version", version, "newest", newest)
		return false
	}

	next := &entry{version: version, result: res}
	for {
		cur, loaded := s.results.LoadOrStore(session, next)
		if !loaded {
			return true
		}
		if cur.(*entry).version > version {
			logger.Debug("Discarding superseded result.", "session", session, "version", version)
			return false
		}
		if s.results.CompareAndSwap(session, cur, next) {
			return true
		}
	}
}

// Latest returns the newest accepted result of session and its version.
func (s *Store) Latest(ctx context.Context, session string) (*pipeline.Result, uint64, bool) {
	v, ok := s.results.Load(session)
	if !ok {
		return nil, 0, false
	}
	e := v.(*entry)
	return e.result, e.version, true
}

// Forget drops everything known about session.
func (s *Store) Forget(ctx context.Context, session string) {
	s.versions.Delete(session)
	s.results.Delete(session)
}
