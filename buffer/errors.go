package buffer

import (
	"errors"

	"github.com/ericrobbins/emalloc/region"
)

var (
	// ErrOutOfMemory indicates the buffer's source could not satisfy a growth
	// request. The buffer passed to Ensure is left valid and unmodified.
	ErrOutOfMemory = region.ErrOutOfMemory

	// ErrSizeOverflow indicates the requested size cannot be rounded to a power
	// of two that fits a slice length. Errors carrying it also match ErrOutOfMemory.
	ErrSizeOverflow = errors.New("buffer: size overflows capacity width")

	// ErrInvalidHandle indicates a released buffer, a zero-value Buffer, or a
	// Handle that was never issued (or is stale) for the table.
	ErrInvalidHandle = errors.New("buffer: invalid handle")

	// ErrOutOfRange indicates a length or offset beyond the buffer's capacity.
	ErrOutOfRange = errors.New("buffer: out of range")
)
