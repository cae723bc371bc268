package types

import "errors"

// Board operation errors. Engine methods report validation failures with a
// boolean result; these sentinels are returned by callers that need to tell
// the failures apart.
var (
	ErrColumnNotFound = errors.New("column not found")
	ErrColumnExists   = errors.New("column already on the board")
	ErrBlockNotFound  = errors.New("block not found")
	ErrInvalidIndex   = errors.New("index out of range")
	ErrLastBlock      = errors.New("cannot delete the last block of a column")
	ErrInvalidID      = errors.New("invalid id")
)

// Trash operation errors.
var (
	ErrTrashItemNotFound = errors.New("trash item not found")
	ErrInvalidKind       = errors.New("invalid trash item kind")
)
