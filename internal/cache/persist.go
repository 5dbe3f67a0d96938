package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// schemaVersion guards the on-disk layout. A mismatch discards the stored
// data rather than guessing at an old shape.
const schemaVersion = 1

const (
	bucketMeta       = "meta"
	keySchemaVersion = "schema_version"
	keyTakenAtSuffix = ".taken_at"
)

// Store persists snapshots in BoltDB, one bucket per source plus a meta
// bucket carrying the schema version. It exists so a restart does not begin
// with an empty cache; the in-memory cache remains authoritative.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens or creates the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		if err != nil {
			return err
		}

		stored := meta.Get([]byte(keySchemaVersion))
		if stored != nil && string(stored) != fmt.Sprint(schemaVersion) {
			// Old schema: drop everything and start over.
			for _, src := range Sources {
				if tx.Bucket([]byte(src)) != nil {
					if err := tx.DeleteBucket([]byte(src)); err != nil {
						return err
					}
				}
			}
		}
		if err := meta.Put([]byte(keySchemaVersion), []byte(fmt.Sprint(schemaVersion))); err != nil {
			return err
		}

		for _, src := range Sources {
			if _, err := tx.CreateBucketIfNotExists([]byte(src)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the stored records for the snapshot's source.
func (s *Store) Save(snap *Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(snap.Source)); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(snap.Source))
		if err != nil {
			return err
		}

		for name, rec := range snap.Records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(name), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket([]byte(bucketMeta))
		stamp, err := snap.TakenAt.MarshalText()
		if err != nil {
			return err
		}
		return meta.Put([]byte(string(snap.Source)+keyTakenAtSuffix), stamp)
	})
}

// Load reads the stored snapshot for a source. It returns nil when nothing
// usable is stored.
func (s *Store) Load(source Source) (*Snapshot, error) {
	var snap *Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(source))
		if bucket == nil {
			return nil
		}

		records := map[string]Record{}
		err := bucket.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records[string(k)] = rec
			return nil
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		var takenAt time.Time
		if meta := tx.Bucket([]byte(bucketMeta)); meta != nil {
			if stamp := meta.Get([]byte(string(source) + keyTakenAtSuffix)); stamp != nil {
				_ = takenAt.UnmarshalText(stamp) //nolint:errcheck
			}
		}

		snap = &Snapshot{Source: source, TakenAt: takenAt, Records: records}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
