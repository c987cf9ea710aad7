package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"namereg/internal/identity"
)

var _ Records = (*BadgerRecords)(nil)

const (
	badgerRecordPrefix = "record/"
	badgerIDKey        = "meta/id"
)

// BadgerRecords stores records in a badger database. Each mutation checks and
// writes inside one transaction, so concurrent writers of the same address
// see a conflict instead of a lost update.
type BadgerRecords struct {
	id string
	db *badger.DB
}

// OpenBadgerRecords opens a badger-backed store in dir. An empty dir opens an
// in-memory database.
func OpenBadgerRecords(dir string) (*BadgerRecords, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger records: %w", err)
	}

	s := &BadgerRecords{db: db}
	if err := s.loadID(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BadgerRecords) loadID() error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerIDKey))
		if err == nil {
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			s.id = string(id)
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		s.id = identity.NewID()
		return txn.Set([]byte(badgerIDKey), []byte(s.id))
	})
}

// ID returns the store ID.
func (s *BadgerRecords) ID() string {
	return s.id
}

// Close closes the database.
func (s *BadgerRecords) Close() error {
	return s.db.Close()
}

// Get returns the live record stored at address.
func (s *BadgerRecords) Get(ctx context.Context, address string, tag uint64) (Record, error) {
	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, address)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	if rec == nil || rec.Deleted() {
		return Record{}, ErrRecordNotFound
	}
	return *rec, nil
}

// Put creates a record.
func (s *BadgerRecords) Put(ctx context.Context, rec Record) error {
	return s.apply(rec, CheckCreate)
}

// Post updates a record.
func (s *BadgerRecords) Post(ctx context.Context, rec Record) error {
	return s.apply(rec, CheckUpdate)
}

// Delete replaces a record with a tombstone.
func (s *BadgerRecords) Delete(ctx context.Context, rec Record) error {
	return s.apply(rec, CheckDelete)
}

func (s *BadgerRecords) apply(rec Record, check func(*Record, Record) error) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readRecord(txn, rec.Address)
		if err != nil {
			return err
		}
		if err := check(current, rec); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set([]byte(badgerRecordPrefix+rec.Address), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: concurrent write to %s", ErrConflict, rec.Address)
	}
	return err
}

func readRecord(txn *badger.Txn, address string) (*Record, error) {
	item, err := txn.Get([]byte(badgerRecordPrefix + address))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", address, err)
	}
	return &rec, nil
}
