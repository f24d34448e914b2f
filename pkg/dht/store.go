package dht

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/pknames/pknames-go/pkg/identity"
	"github.com/pknames/pknames-go/pkg/werrors"
)

// Store persists published signed packets keyed by owner public key: a
// single-byte key prefix plus the fixed-width key, one badger transaction
// per operation.
type Store struct {
	db *badger.DB
}

const packetKeyPrefix = byte(0x01)

func packetKey(key identity.PublicKey) []byte {
	return append([]byte{packetKeyPrefix}, key[:]...)
}

// OpenStore opens (creating if absent) a persistent packet store at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, werrors.New(werrors.Internal, "open dht store", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemoryStore opens a non-persistent store, for tests and
// short-lived in-process peers.
func OpenInMemoryStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, werrors.New(werrors.Internal, "open in-memory dht store", err)
	}
	return &Store{db: db}, nil
}

// Put stores a signed packet's raw bytes under key, overwriting any
// previous value (a later Publish always supersedes an earlier one).
func (s *Store) Put(key identity.PublicKey, packet []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(packetKey(key), packet)
	})
}

// Get returns the packet stored under key, if any.
func (s *Store) Get(key identity.PublicKey) ([]byte, bool) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(packetKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// Close releases the store's underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
