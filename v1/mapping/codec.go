package mapping

import (
	"fmt"
	"reflect"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Aleph-Alpha/mongoplus/v1/conversion"
)

const bsonPkgPath = "go.mongodb.org/mongo-driver/v2/bson"

var (
	bsonMarshalerType      = reflect.TypeOf((*bson.Marshaler)(nil)).Elem()
	bsonValueMarshalerType = reflect.TypeOf((*bson.ValueMarshaler)(nil)).Elem()
)

// Codec writes entities to documents and reads documents back, driven by
// the field table of each type.
type Codec struct {
	in  *Introspector
	reg *conversion.Registry
}

// NewCodec returns a codec. Nil arguments fall back to the process-wide
// defaults.
func NewCodec(in *Introspector, reg *conversion.Registry) *Codec {
	if in == nil {
		in = Default()
	}
	if reg == nil {
		reg = conversion.Default()
	}
	return &Codec{in: in, reg: reg}
}

func (c *Codec) Introspector() *Introspector {
	return c.in
}

func (c *Codec) Registry() *conversion.Registry {
	return c.reg
}

// Encode converts entity, a struct or struct pointer, into a document in
// field order. Values recorded in fc replace the entity's values for fields
// whose fill policy allows the phase. A zero identifier and nil pointers,
// slices and maps are omitted.
func (c *Codec) Encode(entity any, fc *FillContext) (bson.D, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: cannot encode nil %T", ErrMapping, entity)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: cannot encode nil entity", ErrMapping)
	}
	m, err := c.in.Introspect(rv.Type())
	if err != nil {
		return nil, err
	}
	return c.encodeStruct(m, rv, fc)
}

func (c *Codec) encodeStruct(m *TypeModel, rv reflect.Value, fc *FillContext) (bson.D, error) {
	doc := make(bson.D, 0, len(m.fields))
	for _, f := range m.fields {
		if v, ok := fc.Get(f.WireName); ok {
			out, err := c.encodeValue(reflect.ValueOf(v))
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.GoName, err)
			}
			doc = append(doc, bson.E{Key: f.WireName, Value: out})
			continue
		}

		fv := rv.FieldByIndex(f.index)
		if f.IsID && fv.IsZero() {
			continue
		}
		if isNil(fv) {
			continue
		}

		out, err := c.encodeField(f, fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.GoName, err)
		}
		doc = append(doc, bson.E{Key: f.WireName, Value: out})
	}
	return doc, nil
}

func (c *Codec) encodeField(f *FieldDescriptor, fv reflect.Value) (any, error) {
	if f.Handler == "" {
		return c.encodeValue(fv)
	}
	h, ok := c.reg.Handler(f.Handler)
	if !ok {
		return nil, fmt.Errorf("%w: handler %q is not registered", ErrMapping, f.Handler)
	}
	v, err := h.Write(fv.Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: handler %q: %v", conversion.ErrConversion, f.Handler, err)
	}
	return c.encodeValue(reflect.ValueOf(v))
}

// EncodeValue converts a single value the way a field of its type would be
// written. The mapper uses it for filter values such as identifiers.
func (c *Codec) EncodeValue(v any) (any, error) {
	return c.encodeValue(reflect.ValueOf(v))
}

func (c *Codec) encodeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	t := v.Type()

	if s, ok := c.reg.Lookup(t); ok {
		if t.Kind() == reflect.Pointer && v.IsNil() {
			return nil, nil
		}
		return s.Write(v.Interface())
	}
	if conversion.IsEnumLike(t) {
		return c.reg.ConvertOnWrite(v.Interface())
	}
	if passThrough(t) {
		return v.Interface(), nil
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return c.encodeValue(v.Elem())
	case reflect.Struct:
		m, err := c.in.Introspect(t)
		if err != nil {
			return nil, err
		}
		return c.encodeStruct(m, v, nil)
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return v.Interface(), nil
		}
		if t.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make(bson.A, v.Len())
		for i := range out {
			item, err := c.encodeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s is not a string", ErrMapping, t.Key())
		}
		if v.IsNil() {
			return nil, nil
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		out := make(bson.D, 0, len(keys))
		for _, k := range keys {
			item, err := c.encodeValue(v.MapIndex(k))
			if err != nil {
				return nil, err
			}
			out = append(out, bson.E{Key: k.String(), Value: item})
		}
		return out, nil
	}

	return c.reg.ConvertOnWrite(v.Interface())
}

// EncodeMap converts a loosely-typed document. Keys are written in sorted
// order with _id first; values recorded in fc are added or replace existing
// keys.
func (c *Codec) EncodeMap(doc map[string]any, fc *FillContext) (bson.D, error) {
	keys := make([]string, 0, len(doc)+fc.Len())
	for k := range doc {
		keys = append(keys, k)
	}
	if fc != nil {
		for k := range fc.values {
			if _, ok := doc[k]; !ok {
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == IDWireName || keys[j] == IDWireName {
			return keys[i] == IDWireName
		}
		return keys[i] < keys[j]
	})

	out := make(bson.D, 0, len(keys))
	for _, k := range keys {
		v, ok := fc.Get(k)
		if !ok {
			v = doc[k]
		}
		enc, err := c.encodeValue(reflect.ValueOf(v))
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out = append(out, bson.E{Key: k, Value: enc})
	}
	return out, nil
}

// Decode reads a stored document into target, a non-nil struct pointer.
// Keys with no matching field are ignored; fields with no matching key keep
// their current value.
func (c *Codec) Decode(doc any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrMapping, target)
	}
	m, ok := conversion.AsMap(doc)
	if !ok {
		return fmt.Errorf("%w: %T is not a document", conversion.ErrConversion, doc)
	}
	model, err := c.in.Introspect(rv.Elem().Type())
	if err != nil {
		return err
	}
	return c.decodeStruct(model, m, rv.Elem())
}

func (c *Codec) decodeStruct(model *TypeModel, m map[string]any, dst reflect.Value) error {
	for _, f := range model.fields {
		raw, ok := m[f.WireName]
		if !ok {
			continue
		}
		if f.Handler != "" {
			h, ok := c.reg.Handler(f.Handler)
			if !ok {
				return fmt.Errorf("%w: handler %q is not registered", ErrMapping, f.Handler)
			}
			var err error
			if raw, err = h.Read(raw); err != nil {
				return fmt.Errorf("field %s: %w: handler %q: %v", f.GoName, conversion.ErrConversion, f.Handler, err)
			}
		}
		v, err := c.decodeValue(raw, f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.GoName, err)
		}
		dst.FieldByIndex(f.index).Set(v)
	}
	return nil
}

func (c *Codec) decodeValue(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}
	if _, ok := c.reg.Lookup(t); ok || conversion.IsEnumLike(t) || passThrough(t) {
		return c.convert(raw, t)
	}

	switch t.Kind() {
	case reflect.Pointer:
		ev, err := c.decodeValue(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil
	case reflect.Interface:
		v := reflect.ValueOf(Normalize(raw))
		if !v.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: %T does not implement %s", conversion.ErrConversion, raw, t)
		}
		return v, nil
	case reflect.Struct:
		m, ok := conversion.AsMap(raw)
		if !ok {
			return c.convert(raw, t)
		}
		model, err := c.in.Introspect(t)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		if err := c.decodeStruct(model, m, out); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return c.convert(raw, t)
		}
		items, ok := conversion.AsArray(raw)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %T is not an array", conversion.ErrConversion, raw)
		}
		var out reflect.Value
		if t.Kind() == reflect.Slice {
			out = reflect.MakeSlice(t, len(items), len(items))
		} else {
			out = reflect.New(t).Elem()
		}
		for i, item := range items {
			if i >= out.Len() {
				break
			}
			ev, err := c.decodeValue(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Map:
		m, ok := conversion.AsMap(raw)
		if !ok || t.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("%w: cannot read %T into %s", conversion.ErrConversion, raw, t)
		}
		out := reflect.MakeMapWithSize(t, len(m))
		for k, item := range m {
			ev, err := c.decodeValue(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil
	}

	return c.convert(raw, t)
}

func (c *Codec) convert(raw any, t reflect.Type) (reflect.Value, error) {
	v, err := c.reg.ConvertOnRead(raw, t)
	if err != nil {
		return reflect.Value{}, err
	}
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot assign %T to %s", conversion.ErrConversion, v, t)
}

// DecodeMap turns a stored document into a plain map. Embedded documents
// become maps, arrays become []any and datetimes become time.Time.
func (c *Codec) DecodeMap(doc any) (map[string]any, error) {
	m, ok := conversion.AsMap(doc)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a document", conversion.ErrConversion, doc)
	}
	return Normalize(m).(map[string]any), nil
}

// Normalize converts driver document types into plain Go values.
func Normalize(raw any) any {
	switch v := raw.(type) {
	case bson.D, bson.M, map[string]any, bson.Raw:
		m, _ := conversion.AsMap(v)
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = Normalize(item)
		}
		return out
	case bson.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
	case bson.DateTime:
		return v.Time().UTC()
	}
	return raw
}

// passThrough reports types the driver already knows how to marshal.
func passThrough(t reflect.Type) bool {
	if t.PkgPath() == bsonPkgPath {
		return true
	}
	return t.Implements(bsonMarshalerType) || t.Implements(bsonValueMarshalerType)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}
