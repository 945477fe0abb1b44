// Package private implements the private-node lifecycle and the
// directory operation engine built on top of it (spec §3, §4.5–§4.8):
// encrypted headers and content, copy-on-write revisions, file content
// sharding, path resolution/creation, and history traversal.
package private

import "errors"

var (
	// ErrInvalidPath is returned for an empty path where a name is
	// required, or when an interior segment isn't a directory during
	// create.
	ErrInvalidPath = errors.New("private: invalid path")
	// ErrNotFound is returned for a missing entry, shard, or forest label.
	ErrNotFound = errors.New("private: not found")
	// ErrNotAFile is returned when a path resolves to a directory but a
	// file was required.
	ErrNotAFile = errors.New("private: not a file")
	// ErrNotADirectory is returned when a path resolves to a file but a
	// directory was required.
	ErrNotADirectory = errors.New("private: not a directory")
	// ErrFileAlreadyExists is returned by mv when the destination name is
	// already occupied, whether by a file or a directory.
	ErrFileAlreadyExists = errors.New("private: file already exists")
	// ErrDirectoryAlreadyExists is returned by write when the destination
	// name is already occupied by a directory.
	ErrDirectoryAlreadyExists = errors.New("private: directory already exists")
	// ErrMissingHeader is returned when deriving keys from a node with no
	// header loaded.
	ErrMissingHeader = errors.New("private: missing header")
	// ErrUnexpectedVersion is returned when a loaded block's version isn't
	// the one this package understands.
	ErrUnexpectedVersion = errors.New("private: unexpected version")
	// ErrUnexpectedNodeType is returned when a loaded block's declared
	// type doesn't match what the caller expected.
	ErrUnexpectedNodeType = errors.New("private: unexpected node type")
	// ErrFileShardNotFound is returned when a shard's label is present in
	// the forest but its CID set contains nothing usable.
	ErrFileShardNotFound = errors.New("private: file shard not found")
)

// OpError wraps an error with the operation and path that produced it,
// mirroring cellstate-treedb's P.Err(op, err) *os.PathError.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op string, path []string, err error) error {
	return &OpError{Op: op, Path: joinPath(path), Err: err}
}

func joinPath(p []string) string {
	out := "/"
	for i, s := range p {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
