package doublylinkedtree

import "errors"

var ErrNilNode = errors.New("invalid nil or unknown node")
var errNilAnchor = errors.New("nil anchor block")
var errUnknownJustifiedRoot = errors.New("unknown justified root")
