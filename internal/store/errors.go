package store

import "errors"

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrUnknownCollection indicates a collection name outside Collections.
	ErrUnknownCollection = errors.New("store: unknown collection")
	// ErrDuplicateID indicates a snapshot carries the same id twice in one collection.
	ErrDuplicateID = errors.New("store: duplicate id")
	// ErrInvalidRecord indicates a record that cannot be stored.
	ErrInvalidRecord = errors.New("store: invalid record")
)
