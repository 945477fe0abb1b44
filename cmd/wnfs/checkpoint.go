package main

import (
	"encoding/base64"
	"fmt"

	"github.com/fission-suite/wnfs-go/codec"
	"github.com/fission-suite/wnfs-go/nameaccumulator"
	"github.com/fission-suite/wnfs-go/ratchet"
)

// checkpointWire captures exactly what's needed to resume a history walk
// in a later invocation: the node's name (so loadRevisionAt's forest label
// can be recomputed) and a past ratchet to anchor previous_of at. Encoded
// as a portable string since the CLI has no other place to stash it
// between runs of separate commands.
type checkpointWire struct {
	Name          []byte   `cbor:"name"`
	Large         [32]byte `cbor:"large"`
	Medium        [32]byte `cbor:"medium"`
	MediumCounter uint8    `cbor:"mediumCounter"`
	Small         [32]byte `cbor:"small"`
	SmallCounter  uint8    `cbor:"smallCounter"`
}

func encodeCheckpoint(setup nameaccumulator.Setup, name nameaccumulator.Name, r ratchet.Ratchet) (string, error) {
	wire := checkpointWire{
		Name:          name.Bytes(setup),
		Large:         r.Large,
		Medium:        r.Medium,
		MediumCounter: r.MediumCounter,
		Small:         r.Small,
		SmallCounter:  r.SmallCounter,
	}
	data, err := codec.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encoding checkpoint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeCheckpoint(s string) (nameaccumulator.Name, ratchet.Ratchet, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nameaccumulator.Name{}, ratchet.Ratchet{}, fmt.Errorf("decoding checkpoint: %w", err)
	}
	var wire checkpointWire
	if err := codec.Unmarshal(data, &wire); err != nil {
		return nameaccumulator.Name{}, ratchet.Ratchet{}, fmt.Errorf("decoding checkpoint: %w", err)
	}
	name := nameaccumulator.NameFromAccumulator(nameaccumulator.FromBytes(wire.Name))
	r := ratchet.Ratchet{
		Large:         wire.Large,
		Medium:        wire.Medium,
		MediumCounter: wire.MediumCounter,
		Small:         wire.Small,
		SmallCounter:  wire.SmallCounter,
	}
	return name, r, nil
}
