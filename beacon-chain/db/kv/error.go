package kv

import "github.com/pkg/errors"

// ErrNotFound can be used directly, or as a wrapped DBError, whenever a db method needs to
// indicate that a value couldn't be found.
var ErrNotFound = errors.New("not found in db")

// ErrNotFoundHeadRoot is returned when the head block root has not been saved yet.
var ErrNotFoundHeadRoot = errors.Wrap(ErrNotFound, "head block root")

var errNilBlock = errors.New("cannot save nil block")
