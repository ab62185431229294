// Package bolt provides a deny-list behavior whose exact index is persisted
// in a bbolt database. Reads run in their own View transactions, so the
// behavior's CheckExists is safe to call from fast-path readers while the
// owning coordinator writes.
package bolt

import (
	"encoding/binary"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketExact = []byte("exact")
	bucketMeta  = []byte("meta")

	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// StoreStats reports counts and metadata read in a cheap read-only
// transaction.
type StoreStats struct {
	ExactCount  uint64
	Version     uint64
	UpdatedUnix int64
}

// Store is the persistent exact index.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) a Bolt database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketExact); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// ExistsExact reports presence of key in the exact bucket.
func (s *Store) ExistsExact(key string) (bool, error) {
	var present bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketExact)
		if b == nil {
			return nil
		}
		present = b.Get([]byte(key)) != nil
		return nil
	})
	return present, err
}

// PutExact inserts key into the exact bucket and bumps the updated stamp.
func (s *Store) PutExact(key string, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketExact).Put([]byte(key), []byte{1}); err != nil {
			return err
		}
		return putMetaUpdated(tx, updatedUnix)
	})
}

// DeleteExact removes key from the exact bucket and bumps the updated stamp.
func (s *Store) DeleteExact(key string, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketExact).Delete([]byte(key)); err != nil {
			return err
		}
		return putMetaUpdated(tx, updatedUnix)
	})
}

// RebuildAll drops the exact bucket and repopulates it with keys in one
// transaction, writing the new version and updated stamp alongside.
func (s *Store) RebuildAll(keys []string, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketExact); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketExact)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Put([]byte(k), []byte{1}); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		vbuf := make([]byte, 8)
		binary.BigEndian.PutUint64(vbuf, version)
		if err := meta.Put(keyVersion, vbuf); err != nil {
			return err
		}
		ubuf := make([]byte, 8)
		binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
		return meta.Put(keyUpdated, ubuf)
	})
}

// Stats returns counts and metadata.
func (s *Store) Stats() StoreStats {
	st := StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketExact); b != nil {
			st.ExactCount = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(keyVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(keyUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func putMetaUpdated(tx *bbolt.Tx, updatedUnix int64) error {
	ubuf := make([]byte, 8)
	binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
	return tx.Bucket(bucketMeta).Put(keyUpdated, ubuf)
}
