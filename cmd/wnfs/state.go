package main

import (
	"os"

	"github.com/ipfs/go-cid"

	"github.com/fission-suite/wnfs-go/blockstore"
	"github.com/fission-suite/wnfs-go/codec"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/private"
	"github.com/fission-suite/wnfs-go/private/forest"
)

// diskState is everything cmd/wnfs needs to resume a session across
// invocations: the forest's full (label, CID set) index and the private
// root's capability. The block store itself is durable (bbolt); the
// forest is an in-memory persistent structure and has no representation
// on disk otherwise, so it's snapshotted here using the same canonical
// codec every WNFS block is encoded with.
type diskState struct {
	Forest        []forestEntryWire `cbor:"forest"`
	HasRoot       bool              `cbor:"hasRoot"`
	Root          privateRefWire    `cbor:"root"`
	HasPublicRoot bool              `cbor:"hasPublicRoot"`
	PublicRoot    []byte            `cbor:"publicRoot"`
}

type forestEntryWire struct {
	Label []byte   `cbor:"label"`
	CIDs  [][]byte `cbor:"cids"`
}

type privateRefWire struct {
	RevisionLabelHash [32]byte `cbor:"revisionLabelHash"`
	TemporalKey       [32]byte `cbor:"temporalKey"`
	SnapshotKey       [32]byte `cbor:"snapshotKey"`
	ContentCID        []byte   `cbor:"contentCid"`
}

func toPrivateRefWire(ref private.PrivateRef) privateRefWire {
	return privateRefWire{
		RevisionLabelHash: ref.RevisionLabelHash,
		TemporalKey:       ref.TemporalKey,
		SnapshotKey:       ref.SnapshotKey,
		ContentCID:        ref.ContentCID.Bytes(),
	}
}

func fromPrivateRefWire(w privateRefWire) (private.PrivateRef, error) {
	_, contentCID, err := cid.CidFromBytes(w.ContentCID)
	if err != nil {
		return private.PrivateRef{}, err
	}
	return private.PrivateRef{
		RevisionLabelHash: w.RevisionLabelHash,
		TemporalKey:       w.TemporalKey,
		SnapshotKey:       w.SnapshotKey,
		ContentCID:        contentCID,
	}, nil
}

// session bundles the live forest and capabilities loaded from disk state,
// along with what every command needs to reach the block store.
type session struct {
	setup      nameaccumulator.Setup
	bs         blockstore.Blockstore
	fo         *forest.Forest
	root       *private.PrivateRef
	publicRoot *cid.Cid
}

func (s *session) blockstore() blockstore.Blockstore { return s.bs }

func loadSession(path string, setup nameaccumulator.Setup, bs blockstore.Blockstore) (*session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &session{setup: setup, bs: bs, fo: forest.New(setup)}, nil
	}
	if err != nil {
		return nil, err
	}

	var ds diskState
	if err := codec.Unmarshal(data, &ds); err != nil {
		return nil, err
	}

	entries := make([]forest.Entry, len(ds.Forest))
	for i, e := range ds.Forest {
		acc := nameaccumulator.FromBytes(e.Label)
		cids := make([]cid.Cid, len(e.CIDs))
		for j, cb := range e.CIDs {
			_, c, err := cid.CidFromBytes(cb)
			if err != nil {
				return nil, err
			}
			cids[j] = c
		}
		entries[i] = forest.Entry{Label: forest.Label{Accumulator: acc}, CIDs: cids}
	}
	fo := forest.Import(setup, entries)

	s := &session{setup: setup, bs: bs, fo: fo}
	if ds.HasRoot {
		ref, err := fromPrivateRefWire(ds.Root)
		if err != nil {
			return nil, err
		}
		s.root = &ref
	}
	if ds.HasPublicRoot {
		_, c, err := cid.CidFromBytes(ds.PublicRoot)
		if err != nil {
			return nil, err
		}
		s.publicRoot = &c
	}
	return s, nil
}

func saveSession(path string, s *session) error {
	entries := s.fo.Export()
	ds := diskState{Forest: make([]forestEntryWire, len(entries))}
	for i, e := range entries {
		cids := make([][]byte, len(e.CIDs))
		for j, c := range e.CIDs {
			cids[j] = c.Bytes()
		}
		ds.Forest[i] = forestEntryWire{Label: e.Label.Accumulator.Bytes(), CIDs: cids}
	}
	if s.root != nil {
		ds.HasRoot = true
		ds.Root = toPrivateRefWire(*s.root)
	}
	if s.publicRoot != nil {
		ds.HasPublicRoot = true
		ds.PublicRoot = s.publicRoot.Bytes()
	}

	data, err := codec.Marshal(ds)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
