// Package conversion coerces values between Go types and their stored
// MongoDB representation.
//
// A Registry maps a Go type to a Strategy. Resolution tries the exact type
// first, then the enum strategy for enum-like types (named strings, and
// named integers implementing fmt.Stringer), then a generic object strategy
// that assigns, converts or stringifies.
//
// Built-in strategies cover the numeric kinds (with overflow checks on
// narrowing), string, bool, []byte, time.Time (bson.DateTime, epoch millis,
// and DateTimeLayout strings), time.Duration, bson.ObjectID,
// bson.Decimal128, *big.Int and uuid.UUID.
//
//	reg := conversion.Default()
//	v, err := reg.ConvertOnRead(int64(1700000000000), reflect.TypeOf(time.Time{}))
//
// Per-field TypeHandlers are registered by name and bound with the
// handler=<name> option of the mongo struct tag.
package conversion
