package storage

import "github.com/pkg/errors"

// ErrObjectNotFound is returned by every backend when a key does not resolve to an object.
var ErrObjectNotFound = errors.New("object not found")
