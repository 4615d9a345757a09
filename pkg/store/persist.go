package store

import (
	"encoding/json"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/quill-chat/quill/internal/errors"
)

// Key under which the serialized snapshot is stored. There is no
// versioning; a shape change requires a hard reset of this key.
const snapshotKey = "appState"

var snapshotBucket = []byte("quill")

// Persister stores and loads the serialized state snapshot.
type Persister interface {
	// Save writes the full snapshot.
	Save(state State) error

	// Load reads the snapshot back. ok is false when none exists or the
	// stored payload does not parse; callers fall back to a default state.
	Load() (state State, ok bool, err error)
}

// MemoryPersister keeps the snapshot in memory. It backs tests and
// ephemeral sessions.
type MemoryPersister struct {
	mu   sync.Mutex
	blob []byte
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// Save implements Persister.
func (m *MemoryPersister) Save(state State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "Q020", errors.CategoryStorage, "snapshot marshal failed")
	}
	m.mu.Lock()
	m.blob = blob
	m.mu.Unlock()
	return nil
}

// Load implements Persister.
func (m *MemoryPersister) Load() (State, bool, error) {
	m.mu.Lock()
	blob := m.blob
	m.mu.Unlock()

	if len(blob) == 0 {
		return State{}, false, nil
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		return State{}, false, nil
	}
	return state, true, nil
}

// BoltPersister keeps the snapshot in a bbolt database file, giving the
// session durable storage across process restarts.
type BoltPersister struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database file and its bucket.
func OpenBolt(path string) (*BoltPersister, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Q021", errors.CategoryStorage, "open state database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Q022", errors.CategoryStorage, "create state bucket")
	}
	return &BoltPersister{db: db}, nil
}

// Save implements Persister.
func (b *BoltPersister) Save(state State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "Q020", errors.CategoryStorage, "snapshot marshal failed")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(snapshotKey), blob)
	})
}

// Load implements Persister.
func (b *BoltPersister) Load() (State, bool, error) {
	var blob []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(snapshotBucket).Get([]byte(snapshotKey)); v != nil {
			blob = make([]byte, len(v))
			copy(blob, v)
		}
		return nil
	})
	if err != nil {
		return State{}, false, err
	}
	if blob == nil {
		return State{}, false, nil
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		// A corrupt snapshot falls back to the default state.
		return State{}, false, nil
	}
	return state, true, nil
}

// Close closes the underlying database.
func (b *BoltPersister) Close() error {
	return b.db.Close()
}
