package bench

import "errors"

var (
	// ErrNoHeader is returned for result files without a header row.
	ErrNoHeader = errors.New("bench: missing header row")

	// ErrMissingColumn is returned when a required column is not in the header.
	ErrMissingColumn = errors.New("bench: missing column")

	// ErrSplitIndex is returned for a negative split index.
	ErrSplitIndex = errors.New("bench: split index must not be negative")

	// ErrUnknownLayout is returned for a layout name other than labeled or split.
	ErrUnknownLayout = errors.New("bench: unknown layout")

	// ErrUnknownRange is returned for a range mode other than fixed or observed.
	ErrUnknownRange = errors.New("bench: unknown range mode")
)
