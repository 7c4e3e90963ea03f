package runtime

import "errors"

var (
	ErrProcess = errors.New("process error")
)
