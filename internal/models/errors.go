package models

import "errors"

// Error taxonomy raised by the core. Values propagate unchanged to the
// handler layer, which maps them to transport responses; nothing below
// the handlers retries or swallows them.
var (
	// ErrInvalidArgument means the caller supplied malformed or missing input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means a point lookup matched no record.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a transactional precondition failed, e.g. a
	// duplicate job creation.
	ErrConflict = errors.New("record already exists")

	// ErrHeaderNotFound means the header-detection scan exhausted its
	// window without a match.
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrEmptySheet means a header was found but the sheet has no usable
	// data rows.
	ErrEmptySheet = errors.New("sheet contains no data rows")

	// ErrStorageUnavailable means a store or object-store call failed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedRecord means a stored record could not be decoded. It
	// signals corruption or schema drift, never normal operation.
	ErrMalformedRecord = errors.New("malformed record")
)
