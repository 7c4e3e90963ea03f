package pack

import "errors"

var (
	ErrInitrd = errors.New("initrd creation failed")
	ErrISO    = errors.New("ISO creation failed")
)
