package conversion

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrConversion is returned when a stored value cannot be coerced into the
// declared Go type, or a Go value has no store representation.
var ErrConversion = errors.New("conversion error")

// IsConversionError reports whether err wraps ErrConversion.
func IsConversionError(err error) bool {
	return errors.Is(err, ErrConversion)
}

func conversionError(raw any, target reflect.Type, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: cannot convert %T to %s: %v", ErrConversion, raw, typeName(target), cause)
	}
	return fmt.Errorf("%w: cannot convert %T to %s", ErrConversion, raw, typeName(target))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
