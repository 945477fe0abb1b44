// Package codec implements the canonical serialization and symmetric
// encryption wrapper every private and public block is stored under
// (spec §3, §6.2). Structured values are encoded with fxamacker/cbor in
// its canonical (deterministic) mode, the same library the reference
// wnfs-go port uses, so that two encoders never disagree on the bytes
// backing a given value (content-addressing requires that).
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: building canonical encode mode: %v", err))
	}
	encMode = mode
}

// Marshal encodes v using the canonical DAG-CBOR-ish encoding used for
// every structured block (header, file/dir content, forest values).
func Marshal(v interface{}) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data produced by Marshal into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: unmarshal: %w", err)
	}
	return nil
}
