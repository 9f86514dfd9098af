package conversion

import (
	"encoding"
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	stringerType        = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Registry maps Go types to conversion strategies and names to field
// handlers. It is safe for concurrent use; registering a strategy for a type
// that already has one replaces it.
type Registry struct {
	strategies sync.Map // reflect.Type -> Strategy
	handlers   sync.Map // string -> TypeHandler

	enum   Strategy
	object Strategy
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// NewRegistry returns a registry preloaded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		enum:   enumStrategy{},
		object: objectStrategy{},
	}

	num := numericStrategy{}
	for _, v := range []any{
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
	} {
		r.Register(reflect.TypeOf(v), num)
	}

	r.Register(reflect.TypeOf(""), stringStrategy{})
	r.Register(reflect.TypeOf(false), boolStrategy{})
	r.Register(reflect.TypeOf([]byte(nil)), bytesStrategy{})
	r.Register(reflect.TypeOf(time.Time{}), timeStrategy{})
	r.Register(reflect.TypeOf(time.Duration(0)), durationStrategy{})
	r.Register(reflect.TypeOf(bson.ObjectID{}), objectIDStrategy{})
	r.Register(reflect.TypeOf(bson.Decimal128{}), decimalStrategy{})
	r.Register(reflect.TypeOf(&big.Int{}), bigIntStrategy{})
	r.Register(reflect.TypeOf(uuid.UUID{}), uuidStrategy{})

	return r
}

// Register binds s to t.
func (r *Registry) Register(t reflect.Type, s Strategy) {
	r.strategies.Store(t, s)
}

// Lookup returns the strategy registered for exactly t.
func (r *Registry) Lookup(t reflect.Type) (Strategy, bool) {
	s, ok := r.strategies.Load(t)
	if !ok {
		return nil, false
	}
	return s.(Strategy), true
}

// Resolve returns the strategy for t: the exact registration if present,
// the enum strategy for enum-like types, the generic object strategy otherwise.
func (r *Registry) Resolve(t reflect.Type) Strategy {
	if s, ok := r.Lookup(t); ok {
		return s
	}
	if IsEnumLike(t) {
		return r.enum
	}
	return r.object
}

// RegisterHandler binds a field handler to name.
func (r *Registry) RegisterHandler(name string, h TypeHandler) {
	r.handlers.Store(name, h)
}

// Handler returns the field handler registered under name.
func (r *Registry) Handler(name string) (TypeHandler, bool) {
	h, ok := r.handlers.Load(name)
	if !ok {
		return nil, false
	}
	return h.(TypeHandler), true
}

// IsEnumLike reports whether t is a named string type, or a named integer
// type implementing fmt.Stringer.
func IsEnumLike(t reflect.Type) bool {
	if t == nil || t.Name() == "" || t.PkgPath() == "" {
		return false
	}
	switch {
	case t.Kind() == reflect.String:
		return true
	case isInt(t.Kind()) || isUint(t.Kind()):
		return t.Implements(stringerType)
	}
	return false
}

// ConvertOnRead coerces raw into a value assignable to target.
func (r *Registry) ConvertOnRead(raw any, target reflect.Type) (any, error) {
	if target == nil {
		return nil, conversionError(raw, target, nil)
	}
	if raw == nil {
		return reflect.Zero(target).Interface(), nil
	}
	if s, ok := r.Lookup(target); ok {
		return s.Read(raw, target)
	}

	switch target.Kind() {
	case reflect.Pointer:
		v, err := r.ConvertOnRead(raw, target.Elem())
		if err != nil {
			return nil, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	case reflect.Slice:
		if items, ok := AsArray(raw); ok {
			out := reflect.MakeSlice(target, len(items), len(items))
			for i, item := range items {
				v, err := r.ConvertOnRead(item, target.Elem())
				if err != nil {
					return nil, err
				}
				setValue(out.Index(i), v)
			}
			return out.Interface(), nil
		}
	case reflect.Map:
		if target.Key().Kind() == reflect.String {
			if m, ok := AsMap(raw); ok {
				out := reflect.MakeMapWithSize(target, len(m))
				for k, item := range m {
					v, err := r.ConvertOnRead(item, target.Elem())
					if err != nil {
						return nil, err
					}
					val := reflect.New(target.Elem()).Elem()
					setValue(val, v)
					out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), val)
				}
				return out.Interface(), nil
			}
		}
	}

	return r.Resolve(target).Read(raw, target)
}

// ConvertOnWrite converts v into its stored form. Primitives and strings
// pass through, enums become their name, arrays and slices become bson.A,
// and byte sequences are left untouched.
func (r *Registry) ConvertOnWrite(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	t := rv.Type()

	if s, ok := r.Lookup(t); ok {
		return s.Write(v)
	}
	if IsEnumLike(t) {
		return r.enum.Write(v)
	}

	switch t.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return r.ConvertOnWrite(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return v, nil
		}
		if t.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make(bson.A, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := r.ConvertOnWrite(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, conversionError(v, t, fmt.Errorf("map keys must be strings"))
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := bson.M{}
		iter := rv.MapRange()
		for iter.Next() {
			item, err := r.ConvertOnWrite(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = item
		}
		return out, nil
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, conversionError(v, t, fmt.Errorf("no store representation"))
	}

	return r.object.Write(v)
}

// setValue assigns v to dst, converting when the dynamic type differs.
func setValue(dst reflect.Value, v any) {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		rv = rv.Convert(dst.Type())
	}
	dst.Set(rv)
}

// AsArray returns the elements of a stored array, or of any non-byte slice.
func AsArray(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case bson.A:
		return v, true
	case []any:
		return v, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// AsMap flattens the document shapes the driver can hand back into a
// map[string]any. Nested values are left as they are.
func AsMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case bson.M:
		return v, true
	case map[string]any:
		return v, true
	case bson.D:
		out := make(map[string]any, len(v))
		for _, e := range v {
			out[e.Key] = e.Value
		}
		return out, true
	case bson.Raw:
		var m bson.M
		if err := bson.Unmarshal(v, &m); err != nil {
			return nil, false
		}
		return m, true
	}
	return nil, false
}
