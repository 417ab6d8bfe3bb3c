package registry

import "errors"

// ErrInvalidLabel is returned for an empty node label.
var ErrInvalidLabel = errors.New("invalid node label")
