package idgen

import "errors"

// ErrIdentifierGeneration is returned when no identifier could be produced
// for an insert. The insert is aborted.
var ErrIdentifierGeneration = errors.New("identifier generation failed")

// IsIdentifierGenerationError reports whether err wraps ErrIdentifierGeneration.
func IsIdentifierGenerationError(err error) bool {
	return errors.Is(err, ErrIdentifierGeneration)
}
