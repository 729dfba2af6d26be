package store

import (
	"fmt"
	"strconv"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion  = []byte("schema_version")
	keyEmbeddingModel = []byte("embedding_model")
)

// SchemaInfo stores the schema version and the embedding model the corpus
// was built with.
type SchemaInfo struct {
	Version        int
	EmbeddingModel string
	Dimension      int
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if v := b.Get(keySchemaVersion); v != nil {
			version, err := strconv.Atoi(string(v))
			if err != nil {
				return fmt.Errorf("corrupt schema version %q", v)
			}
			info.Version = version
		}
		info.EmbeddingModel = string(b.Get(keyEmbeddingModel))
		info.Dimension = readDimension(tx)
		return nil
	})
	return &info, err
}

func (s *BoltStore) ensureSchema() error {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if info.Version > CurrentSchemaVersion {
		return fmt.Errorf("%w: database created by newer version (v%d > v%d)", domain.ErrStore, info.Version, CurrentSchemaVersion)
	}
	if info.Version == CurrentSchemaVersion {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, []byte(strconv.Itoa(CurrentSchemaVersion)))
	})
}

// MigrationResult describes whether the stored corpus is usable with the
// current configuration.
type MigrationResult struct {
	NeedsRebuild bool
	Reason       string
}

// CheckEmbeddingModel reports when the corpus was embedded by a different
// model than model. Vectors from different models are not comparable even
// when their dimensions agree. The model is recorded by the first successful
// insert, so checking an empty corpus leaves it untouched. Call it before
// the store is shared.
func (s *BoltStore) CheckEmbeddingModel(model string) (*MigrationResult, error) {
	s.model = model

	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	result := &MigrationResult{}
	if info.EmbeddingModel != "" && info.EmbeddingModel != model {
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("corpus was embedded with %q, configuration uses %q", info.EmbeddingModel, model)
	}
	return result, nil
}

// recordModel stores the embedding model once, inside an insert transaction.
func (s *BoltStore) recordModel(tx *bbolt.Tx) error {
	if s.model == "" {
		return nil
	}
	b := tx.Bucket(bucketMeta)
	if b.Get(keyEmbeddingModel) != nil {
		return nil
	}
	return b.Put(keyEmbeddingModel, []byte(s.model))
}
