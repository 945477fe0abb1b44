package blockstore

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	bolt "go.etcd.io/bbolt"
)

// BoltBucketName mirrors the teacher's per-filesystem bucket convention
// (cellstate-treedb.FileSystem.fbucket), generalized into a single bucket
// of CID -> block bytes since the store has no path structure of its own.
var BoltBucketName = []byte("wnfs_blocks")

// BoltStore is a durable Blockstore backed by a bbolt database, the
// successor of the boltdb/bolt package the teacher repo builds on.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// NewBoltStore opens (creating if necessary) the block bucket in db.
func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	bs := &BoltStore{db: db, bucket: BoltBucketName}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bs.bucket)
		return err
	}); err != nil {
		return nil, fmt.Errorf("blockstore: preparing bucket: %w", err)
	}
	return bs, nil
}

func (bs *BoltStore) Put(ctx context.Context, data []byte, codec uint64) (cid.Cid, error) {
	id, err := CIDFromBytes(data, codec)
	if err != nil {
		return cid.Undef, err
	}

	if err := bs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bs.bucket)
		key := id.Bytes()
		if b.Get(key) != nil {
			return nil // idempotent: identical content already stored
		}
		return b.Put(key, data)
	}); err != nil {
		return cid.Undef, fmt.Errorf("blockstore: put %s: %w", id, err)
	}
	log.Debugw("put block", "cid", id, "bytes", len(data))
	return id, nil
}

func (bs *BoltStore) Get(ctx context.Context, id cid.Cid) (data []byte, err error) {
	err = bs.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bs.bucket).Get(id.Bytes())
		if v == nil {
			return ErrBlockNotFound
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("blockstore: get %s: %w", id, err)
	}
	return data, nil
}

func (bs *BoltStore) Has(ctx context.Context, id cid.Cid) (ok bool, err error) {
	err = bs.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(bs.bucket).Get(id.Bytes()) != nil
		return nil
	})
	return ok, err
}
