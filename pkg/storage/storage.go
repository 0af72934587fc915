// Package storage keeps uploaded DBC images in a pebble database, each under
// a KSUID with a small metadata record naming its table and build.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	json "github.com/json-iterator/go"
	"github.com/segmentio/ksuid"
)

var (
	// ErrNotFound is returned for an id with no stored file.
	ErrNotFound = errors.New("file not found")

	metaPrefix = []byte("meta/")
	dataPrefix = []byte("data/")
)

// Entry describes one stored file.
type Entry struct {
	ID      ksuid.KSUID `json:"id"`
	Name    string      `json:"name"`
	Build   string      `json:"build"`
	Size    int         `json:"size"`
	Created time.Time   `json:"created"`
	Updated time.Time   `json:"updated"`
}

// DefaultStorage is a pebble-backed file store.
type DefaultStorage struct {
	db *pebble.DB
}

// NewDefaultStorage opens or creates the store at path.
func NewDefaultStorage(path string) (*DefaultStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &DefaultStorage{db: db}, nil
}

// Create stores data as a new file and returns its entry.
func (s *DefaultStorage) Create(name, build string, data []byte) (*Entry, error) {
	now := time.Now().UTC()
	e := &Entry{
		ID:      ksuid.New(),
		Name:    name,
		Build:   build,
		Size:    len(data),
		Created: now,
		Updated: now,
	}
	if err := s.write(e, data); err != nil {
		return nil, err
	}
	return e, nil
}

// Read returns the entry and image stored under id.
func (s *DefaultStorage) Read(id ksuid.KSUID) (*Entry, []byte, error) {
	e, err := s.Stat(id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.get(key(dataPrefix, id))
	if err != nil {
		return nil, nil, err
	}
	return e, data, nil
}

// Stat returns the entry stored under id.
func (s *DefaultStorage) Stat(id ksuid.KSUID) (*Entry, error) {
	raw, err := s.get(key(metaPrefix, id))
	if err != nil {
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("failed to decode entry %s: %w", id, err)
	}
	return &e, nil
}

// Update replaces the image stored under id.
func (s *DefaultStorage) Update(id ksuid.KSUID, data []byte) (*Entry, error) {
	e, err := s.Stat(id)
	if err != nil {
		return nil, err
	}
	e.Size = len(data)
	e.Updated = time.Now().UTC()
	if err := s.write(e, data); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes the file stored under id.
func (s *DefaultStorage) Delete(id ksuid.KSUID) error {
	if _, err := s.Stat(id); err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(key(metaPrefix, id), nil); err != nil {
		return err
	}
	if err := b.Delete(key(dataPrefix, id), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// List returns every entry, oldest first.
func (s *DefaultStorage) List() ([]Entry, error) {
	upper := append([]byte(nil), metaPrefix...)
	upper[len(upper)-1]++

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: metaPrefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			iter.Close()
			return nil, fmt.Errorf("failed to decode entry %s: %w", bytes.TrimPrefix(iter.Key(), metaPrefix), err)
		}
		entries = append(entries, e)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close releases the database.
func (s *DefaultStorage) Close() error {
	return s.db.Close()
}

func (s *DefaultStorage) write(e *Entry, data []byte) error {
	meta, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(key(metaPrefix, e.ID), meta, nil); err != nil {
		return err
	}
	if err := b.Set(key(dataPrefix, e.ID), data, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// get copies the value out before the pebble closer releases it.
func (s *DefaultStorage) get(k []byte) ([]byte, error) {
	value, closer, err := s.db.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

func key(prefix []byte, id ksuid.KSUID) []byte {
	return append(append([]byte(nil), prefix...), id.String()...)
}

// ParseID parses the textual form of a file id.
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: invalid id %q", ErrNotFound, s)
	}
	return id, nil
}
