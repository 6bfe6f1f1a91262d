package program

import "errors"

var (
	ErrNotFound         = errors.New("program not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrForbidden        = errors.New("not authorized to act on this program")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTerminalState    = errors.New("program is in a terminal state")
	// ErrConflict is returned by Save when the stored version moved on.
	ErrConflict = errors.New("program was modified concurrently")
)
