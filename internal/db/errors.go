package db

import "errors"

var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	// ErrUnavailable marks failures that never got a server reply:
	// refused connections, timeouts, a closed client.
	ErrUnavailable = errors.New("db: engine unavailable")
)

// Op names the engine command behind an Error.
type Op string

// Commands issued by the store.
const (
	OpCreateIndex Op = "FT.CREATE"
	OpDropIndex   Op = "FT.DROPINDEX"
	OpSearch      Op = "FT.SEARCH"
	OpHSet        Op = "HSET"
	OpGet         Op = "GET"
	OpSet         Op = "SET"
)

// Error is a failed engine command.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return string(e.Op) + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }
