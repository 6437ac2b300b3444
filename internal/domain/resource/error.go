package resource

import "errors"

var (
	ErrConflict = errors.New("record already exists")
	ErrNoOwner  = errors.New("owner id is required")
)
