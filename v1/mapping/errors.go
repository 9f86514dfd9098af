package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrMapping is returned when a type cannot be mapped to a document.
	ErrMapping = errors.New("mapping error")

	// ErrIdentifierMissing is returned when an operation needs an identifier
	// field, or an identifier value, and there is none. It wraps ErrMapping.
	ErrIdentifierMissing = fmt.Errorf("%w: identifier missing", ErrMapping)
)

// IsMappingError reports whether err wraps ErrMapping.
func IsMappingError(err error) bool {
	return errors.Is(err, ErrMapping)
}
