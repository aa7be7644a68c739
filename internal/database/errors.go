package database

import "errors"

// ErrUnknownChannel is returned when an operation references a channel id
// with no matching record. The relay treats it as a no-op rather than a
// storage failure.
var ErrUnknownChannel = errors.New("unknown channel")
