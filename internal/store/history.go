// Package store keeps a history of recognized positions in a bbolt
// database so earlier results can be listed without re-running the
// pipeline.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ironsheep/chessboard-fen-mcp/internal/detection"
)

const (
	// BucketName for storing recognitions
	BucketName = "recognitions"
)

// ErrClosed is returned by every operation on a closed history.
var ErrClosed = errors.New("history is closed")

// Entry is one stored recognition.
type Entry struct {
	ID       uint64         `json:"id"`
	Time     time.Time      `json:"time"`
	Source   string         `json:"source,omitempty"`
	Digest   string         `json:"digest,omitempty"`
	Board    detection.Rect `json:"board"`
	FEN      string         `json:"fen"`
	Flipped  bool           `json:"flipped"`
	Warnings []string       `json:"warnings"`
}

// History is a bbolt-backed, append-only log of recognitions. Entries are
// keyed by a big-endian sequence number so cursor order is insertion order.
type History struct {
	db     *bbolt.DB
	path   string
	closed bool
}

// Open opens or creates the history database at path.
func Open(path string) (*History, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketName)); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db, path: path}, nil
}

// Path returns the database file location.
func (h *History) Path() string { return h.path }

// Add stores e, assigning its ID and, when unset, its Time. The stored
// entry is returned.
func (h *History) Add(e Entry) (Entry, error) {
	if h.closed {
		return e, ErrClosed
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if e.Warnings == nil {
		e.Warnings = []string{}
	}

	err := h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		e.ID = id

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		return b.Put(itob(id), data)
	})
	return e, err
}

// Get returns the entry with the given ID.
func (h *History) Get(id uint64) (Entry, bool, error) {
	var e Entry
	if h.closed {
		return e, false, ErrClosed
	}

	found := false
	err := h.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(BucketName)).Get(itob(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	return e, found, err
}

// Recent returns up to n entries, newest first. When digest is not empty
// only entries for that image are returned.
func (h *History) Recent(n int, digest string) ([]Entry, error) {
	if h.closed {
		return nil, ErrClosed
	}

	entries := []Entry{}
	if n <= 0 {
		return entries, nil
	}

	err := h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketName)).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < n; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("corrupt entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if digest != "" && e.Digest != digest {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (h *History) Count() (int, error) {
	if h.closed {
		return 0, ErrClosed
	}

	var n int
	err := h.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(BucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database.
func (h *History) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
