package qscan

import "errors"

var (
	// ErrNoPeak reports that a search examined every plane and row in the
	// window without finding a defined maximum. Callers must treat this as
	// distinct from a search that found negligible energy.
	ErrNoPeak = errors.New("no peak found in search window")

	// ErrInvalidGeometry reports tile centers that are non-monotonic or
	// fall below the advancing left edge. This is a data contract
	// violation, fatal for the channel that produced it.
	ErrInvalidGeometry = errors.New("invalid tile geometry")

	// ErrInvalidConfiguration reports degenerate scan parameters. Raised
	// before any plane is requested.
	ErrInvalidConfiguration = errors.New("invalid scan configuration")
)
