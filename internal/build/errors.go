package build

import "errors"

var (
	ErrBuild               = errors.New("build failed")
	ErrCompile             = errors.New("compilation failed")
	ErrArtifactMissing     = errors.New("build artifact missing")
	ErrRelativeOutput      = errors.New("output path is not absolute")
	ErrInvalidOutput       = errors.New("output path does not name a file")
	ErrOverlappingOutput   = errors.New("overlapping output paths")
	ErrDuplicateName       = errors.New("duplicate component name")
	ErrFileSystemOperation = errors.New("file system operation failed")
	ErrCopy                = errors.New("copy failed")
	ErrScript              = errors.New("post-copy script failed")
	ErrReport              = errors.New("build report failed")
)
