// Package store provides the embedded, file-backed persistence layer for
// the cold storage subsystem: a single buntdb database holding the
// transfer and request tables. LocationPrefix is reserved, but the
// location table itself is kept in a YAML file by the CLI, not here.
package store

import (
	"fmt"

	"github.com/tidwall/buntdb"
)

// Key prefixes partition the single buntdb keyspace into logical tables.
const (
	TransferPrefix = "transfer:"
	RequestPrefix  = "request:"
	LocationPrefix = "location:"
)

// Index names registered against the database at Open time.
const (
	IdxTransferActionStatus = "transfer_action_status"
	IdxTransferCompletedAt  = "transfer_completed_at"
	IdxTransferRecordUUID   = "transfer_record_uuid"
	IdxRequestLastCheck     = "request_last_check"
	IdxRequestStatus        = "request_status"
)

// Store wraps a buntdb.DB and owns its secondary indexes.
type Store struct {
	db *buntdb.DB
}

// Open opens (creating if absent) the database file at path and installs
// the secondary indexes used by the transfer and request repositories.
// Pass ":memory:" for an ephemeral, disk-free store (used by tests).
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.createIndexes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createIndexes() error {
	indexes := []struct {
		name    string
		pattern string
		less    []func(a, b string) bool
	}{
		{IdxTransferActionStatus, TransferPrefix + "*", []func(a, b string) bool{buntdb.IndexJSON("action"), buntdb.IndexJSON("status")}},
		{IdxTransferCompletedAt, TransferPrefix + "*", []func(a, b string) bool{buntdb.IndexJSON("finished_at")}},
		{IdxTransferRecordUUID, TransferPrefix + "*", []func(a, b string) bool{buntdb.IndexJSON("record_uuid")}},
		{IdxRequestLastCheck, RequestPrefix + "*", []func(a, b string) bool{buntdb.IndexJSON("last_check")}},
		{IdxRequestStatus, RequestPrefix + "*", []func(a, b string) bool{buntdb.IndexJSON("status")}},
	}

	for _, idx := range indexes {
		if err := s.db.CreateIndex(idx.name, idx.pattern, idx.less...); err != nil && err != buntdb.ErrIndexExists {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Update runs fn inside a single read-write transaction. Every write that
// must check-then-set atomically (the (file_id,action) unfinished-transfer
// uniqueness check in particular) goes through this method so the check
// and the write share one transaction.
func (s *Store) Update(fn func(tx *buntdb.Tx) error) error {
	return s.db.Update(fn)
}

// View runs fn inside a read-only transaction.
func (s *Store) View(fn func(tx *buntdb.Tx) error) error {
	return s.db.View(fn)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
