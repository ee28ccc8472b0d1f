package bom

import "errors"

// Construction errors. They are returned wrapped with context; match them
// with errors.Is.
var (
	ErrNoRoot            = errors.New("no root assembly found")
	ErrMultipleRoots     = errors.New("multiple root assemblies found")
	ErrCycle             = errors.New("assembly cycle detected")
	ErrDuplicateAssembly = errors.New("duplicate assembly")
	ErrMissingKeyColumn  = errors.New("missing key column")
	ErrDuplicatePart     = errors.New("duplicate part number in parts list")
)
