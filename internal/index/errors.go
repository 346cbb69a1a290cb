package index

import "errors"

var (
	// ErrIndexNotFound is returned when a query needs an artifact that has
	// never been built.
	ErrIndexNotFound = errors.New("index not found")

	// ErrCorruptIndex is returned when an artifact fails its consistency checks.
	ErrCorruptIndex = errors.New("index artifact is corrupt")

	// ErrUnknownArtifact is returned for an artifact type the store cannot handle.
	ErrUnknownArtifact = errors.New("unknown index artifact")
)
