package strbuf

import (
	"github.com/pkg/errors"
)

// Errors returned by StringBuffer operations. They are wrapped with context,
// use errors.Is to match them.
var (
	// ErrOutOfMemory is returned when a code unit count does not fit the byte
	// size of a buffer, or when growing a buffer cannot produce enough room.
	ErrOutOfMemory = errors.New("strbuf: out of memory")
	// ErrEncoding is returned when transcoding meets an illegal sequence.
	ErrEncoding = errors.New("strbuf: illegal code unit sequence")
	// ErrInvalidArgument is returned for positions outside of a buffer or
	// bound to a buffer generation that no longer exists.
	ErrInvalidArgument = errors.New("strbuf: invalid argument")
)
