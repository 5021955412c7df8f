// Package history keeps a local log of evaluation runs in a bbolt database.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jamesainslie/go-liveness/internal/report"
)

const bucketName = "runs"

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("history: store closed")

// Run is the stored summary of one evaluation.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Dataset   string    `json:"dataset"`
	Source    string    `json:"source,omitempty"`
	Layout    string    `json:"layout"`
	Samples   int       `json:"samples"`
	Dropped   int       `json:"dropped"`

	EER          float64 `json:"eer"`
	EERThreshold float64 `json:"eer_threshold"`
	MinACER      float64 `json:"min_acer"`
	Accuracy     float64 `json:"accuracy"`
}

// FromReport extracts the stored fields of a report.
func FromReport(r *report.Report) Run {
	run := Run{
		ID:        r.RunID,
		CreatedAt: r.CreatedAt,
		Dataset:   r.Dataset,
		Source:    r.Source,
		Layout:    r.Layout,
		Samples:   r.Samples,
		Dropped:   r.Dropped,
		Accuracy:  r.Decision.Accuracy,
	}
	if r.EER != nil {
		run.EER = r.EER.ACER
		run.EERThreshold = r.EER.Threshold
	}
	if r.MinACER != nil {
		run.MinACER = r.MinACER.ACER
	}
	return run
}

// Store is a run log backed by a single bbolt file.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends a run. Keys are a monotonic sequence, so iteration order is
// insertion order.
func (s *Store) Record(run Run) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return bucket.Put(itob(seq), data)
	})
}

// List returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) List(limit int) ([]Run, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	var runs []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("decode run %d: %w", binary.BigEndian.Uint64(k), err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
