package component

import "errors"

var (
	ErrDirectory     = errors.New("unreadable component directory")
	ErrParse         = errors.New("invalid build descriptor")
	ErrMetadata      = errors.New("package metadata query failed")
	ErrDepthExceeded = errors.New("module nesting too deep")
	ErrDuplicateName = errors.New("duplicate component name")
)
