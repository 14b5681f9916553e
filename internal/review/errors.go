package review

import "errors"

var (
	// ErrNotFound is returned by Store.FindByKey when no review exists for the key
	ErrNotFound = errors.New("review not found")

	// ErrDuplicate is returned by Store.Insert when the key is already taken
	ErrDuplicate = errors.New("review already exists")
)
