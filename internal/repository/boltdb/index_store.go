package boltdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"movieReco/business/semantic"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyManifest   = []byte("manifest")

	ErrInconsistentArtifacts = errors.New("index artifacts are inconsistent")
)

var _ semantic.ArtifactStore = (*IndexStore)(nil)

type manifest struct {
	Model     string  `json:"model"`
	Dimension int     `json:"dimension"`
	IDs       []int64 `json:"ids"`
}

// IndexStore persists semantic index vectors in a bbolt file. The manifest
// records the id order; vectors are keyed by big-endian item id.
type IndexStore struct {
	db *bbolt.DB
}

func NewIndexStore(path string) (*IndexStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &IndexStore{db: db}, nil
}

func (s *IndexStore) Close() error {
	return s.db.Close()
}

func itemKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func readManifest(tx *bbolt.Tx) (*manifest, error) {
	data := tx.Bucket(bucketMeta).Get(keyManifest)
	if data == nil {
		return nil, nil
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

func writeManifest(tx *bbolt.Tx, m manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keyManifest, data)
}

func putVectors(b *bbolt.Bucket, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	for i, id := range ids {
		data, err := json.Marshal(vectors[i])
		if err != nil {
			return err
		}
		if err := b.Put(itemKey(id), data); err != nil {
			return err
		}
	}
	return nil
}

// Load returns nil when no index has been stored.
func (s *IndexStore) Load(ctx context.Context) (*semantic.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var snap *semantic.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		m, err := readManifest(tx)
		if err != nil || m == nil {
			return err
		}

		b := tx.Bucket(bucketVectors)
		vectors := make([][]float32, len(m.IDs))
		for i, id := range m.IDs {
			data := b.Get(itemKey(id))
			if data == nil {
				return fmt.Errorf("%w: no vector for item %d", ErrInconsistentArtifacts, id)
			}
			if err := json.Unmarshal(data, &vectors[i]); err != nil {
				return fmt.Errorf("failed to decode vector %d: %w", id, err)
			}
			if m.Dimension > 0 && len(vectors[i]) != m.Dimension {
				return fmt.Errorf("%w: item %d has dimension %d", ErrInconsistentArtifacts, id, len(vectors[i]))
			}
		}

		snap = &semantic.Snapshot{
			Model:     m.Model,
			Dimension: m.Dimension,
			IDs:       m.IDs,
			Vectors:   vectors,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Replace drops everything stored and writes snap in one transaction.
func (s *IndexStore) Replace(ctx context.Context, snap semantic.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		if err := putVectors(b, snap.IDs, snap.Vectors); err != nil {
			return err
		}

		ids := append([]int64(nil), snap.IDs...)
		return writeManifest(tx, manifest{Model: snap.Model, Dimension: snap.Dimension, IDs: ids})
	})
}

// Append adds vectors for ids that are not stored yet. Ids already present
// are overwritten in place and keep their position.
func (s *IndexStore) Append(ctx context.Context, model string, dim int, ids []int64, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		m, err := readManifest(tx)
		if err != nil {
			return err
		}
		if m == nil {
			m = &manifest{Model: model, Dimension: dim}
		}
		if m.Model != model || (m.Dimension > 0 && m.Dimension != dim) {
			return fmt.Errorf("%w: stored %s/%d, appending %s/%d",
				ErrInconsistentArtifacts, m.Model, m.Dimension, model, dim)
		}
		m.Dimension = dim

		b := tx.Bucket(bucketVectors)
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if b.Get(itemKey(id)) == nil {
				m.IDs = append(m.IDs, id)
			}
		}
		if err := putVectors(b, ids, vectors); err != nil {
			return err
		}
		return writeManifest(tx, *m)
	})
}
