package stategen

import "github.com/pkg/errors"

var (
	errUnknownState = errors.New("unknown state")
	errNilState     = errors.New("nil state")
)
