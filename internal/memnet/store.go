package memnet

import (
	"context"
	"sort"
	"sync"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/model"
)

// Store is an in-memory p2pchat.MessageStore with failure injection.
type Store struct {
	mu       sync.Mutex
	records  []model.Record
	seq      int64
	writeErr error
	readErr  error
	closed   bool
}

var _ p2pchat.MessageStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// FailWrites makes Store and PruneOlderThan fail with err until reset with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// FailReads makes Recent, Since and Count fail with err until reset with nil.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// Store appends an envelope.
func (s *Store) Store(_ context.Context, e model.Envelope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", p2pchat.ErrStoreClosed
	}
	if s.writeErr != nil {
		return "", p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to insert message", s.writeErr)
	}

	s.seq++
	rec := model.NewRecord(e, s.seq)
	s.records = append(s.records, rec)
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].StorageKey < s.records[j].StorageKey
	})
	return rec.StorageKey, nil
}

// Recent returns up to limit of the most recent records, oldest first.
func (s *Store) Recent(_ context.Context, limit int) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return []model.Record{}, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to load recent messages", s.readErr)
	}
	if limit <= 0 {
		return []model.Record{}, nil
	}

	start := len(s.records) - limit
	if start < 0 {
		start = 0
	}
	out := make([]model.Record, len(s.records)-start)
	copy(out, s.records[start:])
	return out, nil
}

// Since returns records with SentAt strictly greater than sentAt.
func (s *Store) Since(_ context.Context, sentAt int64) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return []model.Record{}, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to load messages", s.readErr)
	}

	out := []model.Record{}
	for _, r := range s.records {
		if r.SentAt > sentAt {
			out = append(out, r)
		}
	}
	return out, nil
}

// PruneOlderThan removes records with SentAt strictly less than sentAt.
func (s *Store) PruneOlderThan(_ context.Context, sentAt int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return 0, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to prune messages", s.writeErr)
	}

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if r.SentAt < sentAt {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

// Count returns the number of records.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return 0, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to count messages", s.readErr)
	}
	return int64(len(s.records)), nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
