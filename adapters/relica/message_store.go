package relica

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/model"
	"github.com/coregx/relica"
)

// MessageStore implements p2pchat.MessageStore using Relica.
//
// The store owns its *sql.DB and closes it on Close. Writes are serialized
// by an internal lock, which also guards the sequence counter used to build
// storage keys.
type MessageStore struct {
	db          *relica.DB
	sqlDB       *sql.DB
	tablePrefix string

	mu     sync.RWMutex
	seq    int64
	closed bool
}

// NewMessageStore creates a new MessageStore with the default table prefix.
// The schema must already exist (see p2pchat.ApplyMigrations).
func NewMessageStore(ctx context.Context, sqlDB *sql.DB, driverName string) (*MessageStore, error) {
	return NewMessageStoreWithPrefix(ctx, sqlDB, driverName, p2pchat.DefaultTablePrefix)
}

// NewMessageStoreWithPrefix creates a new MessageStore with a custom table prefix.
// The sequence counter resumes from the highest sequence already stored.
func NewMessageStoreWithPrefix(ctx context.Context, sqlDB *sql.DB, driverName, prefix string) (*MessageStore, error) {
	s := &MessageStore{
		db:          relica.WrapDB(sqlDB, driverName),
		sqlDB:       sqlDB,
		tablePrefix: prefix,
	}

	var row aggregate
	err := s.db.WithContext(ctx).Select("COALESCE(MAX(sequence), 0) AS n").From(s.tableName()).One(&row)
	if err != nil {
		return nil, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStartup, "failed to read message sequence", err)
	}
	s.seq = row.N

	return s, nil
}

// aggregate receives single-value queries; Relica scans into structs only.
type aggregate struct {
	N int64 `db:"n"`
}

var recordColumns = strings.Join(model.Columns, ", ")

func (s *MessageStore) tableName() string {
	return s.tablePrefix + "message"
}

// Store appends an envelope and returns its storage key.
func (s *MessageStore) Store(ctx context.Context, e model.Envelope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", p2pchat.ErrStoreClosed
	}

	rec := model.NewRecord(e, s.seq+1)
	err := s.db.WithContext(ctx).Model(&rec).Table(s.tableName()).Insert()
	if err != nil {
		return "", p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to insert message", err)
	}
	s.seq = rec.Sequence

	return rec.StorageKey, nil
}

// Recent returns up to limit of the most recent records, oldest first.
func (s *MessageStore) Recent(ctx context.Context, limit int) ([]model.Record, error) {
	if limit <= 0 {
		return []model.Record{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return []model.Record{}, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to load recent messages", p2pchat.ErrStoreClosed)
	}

	var records []model.Record
	err := s.db.WithContext(ctx).Select(recordColumns).
		From(s.tableName()).
		OrderBy("storage_key DESC").
		Limit(int64(limit)).
		WithContext(ctx).
		All(&records)
	if err != nil {
		return []model.Record{}, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to load recent messages", err)
	}

	slices.Reverse(records)
	return nonNil(records), nil
}

// Since returns every record with SentAt strictly greater than sentAt, oldest first.
func (s *MessageStore) Since(ctx context.Context, sentAt int64) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return []model.Record{}, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to load messages", p2pchat.ErrStoreClosed)
	}

	var records []model.Record
	err := s.db.WithContext(ctx).Select(recordColumns).
		From(s.tableName()).
		Where("sent_at > ?", sentAt).
		OrderBy("storage_key ASC").
		WithContext(ctx).
		All(&records)
	if err != nil {
		return []model.Record{}, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to load messages", err)
	}

	return nonNil(records), nil
}

// PruneOlderThan deletes every record with SentAt strictly less than sentAt.
func (s *MessageStore) PruneOlderThan(ctx context.Context, sentAt int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, p2pchat.ErrStoreClosed
	}

	res, err := s.db.WithContext(ctx).Delete(s.tableName()).
		Where("sent_at < ?", sentAt).
		Execute()
	if err != nil {
		return 0, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to prune messages", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to count pruned messages", err)
	}
	return deleted, nil
}

// Count returns the number of stored records.
func (s *MessageStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to count messages", p2pchat.ErrStoreClosed)
	}

	var row aggregate
	err := s.db.WithContext(ctx).Select("COUNT(*) AS n").From(s.tableName()).One(&row)
	if err != nil {
		return 0, p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreRead, "failed to count messages", err)
	}
	return row.N, nil
}

// Close closes the underlying database. Subsequent calls return nil.
func (s *MessageStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.sqlDB.Close(); err != nil {
		return p2pchat.NewErrorWithCause(p2pchat.ErrCodeStoreWrite, "failed to close message store", err)
	}
	return nil
}

func nonNil(records []model.Record) []model.Record {
	if records == nil {
		return []model.Record{}
	}
	return records
}
