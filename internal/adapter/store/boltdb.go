package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

var (
	bucketCorpus = []byte("corpus")
	bucketMeta   = []byte("meta")
	keyDimension = []byte("dimension")
)

// BoltStore is a chunk store backed by a local bbolt file. Entries are keyed
// by the bucket sequence so iteration order is insertion order.
//
// The configured dimension and embedding model are written to the meta bucket
// by the first successful insert, so opening the store never modifies it.
type BoltStore struct {
	db        *bbolt.DB
	dimension int
	model     string
}

type storedEntry struct {
	ID     string `json:"id"`
	Chunk  string `json:"chunk"`
	Vector []byte `json:"v"`
}

// NewBoltStore opens or creates the store at path. A non-zero dimension must
// agree with the dimension already recorded in the file, and is enforced on
// inserts into an empty store.
func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bolt db: %v", domain.ErrStore, err)
	}

	s := &BoltStore{db: db, dimension: dimension}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCorpus, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("%w: failed to create bucket %s: %v", domain.ErrStore, b, err)
			}
		}
		if stored := readDimension(tx); stored != 0 && dimension != 0 {
			return domain.CheckDimension(domain.ErrStore, stored, dimension)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *BoltStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if len(vector) == 0 {
		return "", fmt.Errorf("%w: empty vector", domain.ErrStore)
	}

	id := uuid.NewString()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		stored := readDimension(tx)
		want := stored
		if want == 0 {
			want = s.dimension
		}
		if err := domain.CheckDimension(domain.ErrStore, want, len(vector)); err != nil {
			return err
		}
		if stored == 0 {
			if err := writeDimension(tx, len(vector)); err != nil {
				return err
			}
		}
		if err := s.recordModel(tx); err != nil {
			return err
		}

		b := tx.Bucket(bucketCorpus)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(storedEntry{
			ID:     id,
			Chunk:  chunk,
			Vector: EncodeVector(vector),
		})
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), data)
	})
	if err != nil {
		var dimErr *domain.DimensionError
		if errors.As(err, &dimErr) {
			return "", err
		}
		return "", fmt.Errorf("%w: insert: %v", domain.ErrStore, err)
	}
	return id, nil
}

func (s *BoltStore) FetchAll(ctx context.Context) ([]domain.CorpusEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	var entries []domain.CorpusEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCorpus)
		entries = make([]domain.CorpusEntry, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			vector, err := DecodeVector(stored.Vector)
			if err != nil {
				return fmt.Errorf("entry %s: %w", stored.ID, err)
			}
			entries = append(entries, domain.CorpusEntry{
				ID:     stored.ID,
				Chunk:  stored.Chunk,
				Vector: vector,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", domain.ErrStore, err)
	}
	return entries, nil
}

func (s *BoltStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.Entries = tx.Bucket(bucketCorpus).Stats().KeyN
		stats.Dimension = readDimension(tx)
		if stats.Dimension == 0 {
			stats.Dimension = s.dimension
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("%w: stats: %v", domain.ErrStore, err)
	}
	return stats, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func readDimension(tx *bbolt.Tx) int {
	data := tx.Bucket(bucketMeta).Get(keyDimension)
	if data == nil {
		return 0
	}
	dim, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return dim
}

func writeDimension(tx *bbolt.Tx, dim int) error {
	return tx.Bucket(bucketMeta).Put(keyDimension, []byte(strconv.Itoa(dim)))
}
