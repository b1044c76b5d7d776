package errs

import (
	"errors"
)

var (
	ErrNotFound = errors.New("book not found")
	ErrConflict = errors.New("isbn already exists")
)
