package overlay

import "github.com/pkg/errors"

// Error kinds reported by overlay runs. They are wrapped with the failing
// path or value; callers match them with errors.Is.
var (
	// ErrInputNotFound means the background video or a logo does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrUnreadableMedia means an input exists but could not be decoded
	// as video or image data.
	ErrUnreadableMedia = errors.New("unreadable media")

	// ErrInvalidScaleFactor means the scale factor is zero or negative.
	ErrInvalidScaleFactor = errors.New("scale factor must be positive")

	// ErrOutputWrite means the output could not be created or written.
	ErrOutputWrite = errors.New("output write failed")
)
