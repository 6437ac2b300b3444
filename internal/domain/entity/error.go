package entity

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnknownType  = errors.New("unknown entity type")
	ErrInvalidData  = errors.New("invalid record data")
	ErrAlwaysRemote = errors.New("entity type is not stored locally")
	ErrNoOwner      = errors.New("no owner in session")
)
