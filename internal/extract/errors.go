package extract

import "gitlab.com/tozd/go/errors"

// The three ways a walk fails. Each aborts the whole extraction.
var (
	ErrUnclassifiable     = errors.Base("unclassifiable symbol")
	ErrMissingDeclaration = errors.Base("missing declaration")
	ErrUnsupportedType    = errors.Base("unsupported type")
)
