package kntypes

import (
	"errors"
)

var (
	ErrMissingSource  = errors.New("source repository not specified")
	ErrNotFound       = errors.New("not found")
	ErrCorruptArchive = errors.New("corrupt archive")
	ErrCorruptMarker  = errors.New("corrupt marker")
)
