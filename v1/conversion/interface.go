package conversion

import "reflect"

// Strategy converts values of one Go type to and from their stored form.
type Strategy interface {
	// Read coerces a raw value decoded from the store into target.
	// The returned value has exactly type target.
	Read(raw any, target reflect.Type) (any, error)

	// Write converts v into the value handed to the driver.
	Write(v any) (any, error)
}

// TypeHandler is a per-field converter bound by name through the
// handler=<name> struct tag option. It runs before the type strategy on
// write and after raw decoding on read.
type TypeHandler interface {
	Write(v any) (any, error)
	Read(raw any) (any, error)
}
