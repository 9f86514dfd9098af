package mapping

import (
	"fmt"
	"reflect"
	"strings"
)

// IDWireName is the reserved key the identifier is stored under.
const IDWireName = "_id"

// FillPolicy says in which write phases a MetaObjectHandler may populate a field.
type FillPolicy int

const (
	FillNone FillPolicy = iota
	FillInsert
	FillUpdate
	FillInsertUpdate
)

// Allows reports whether the policy accepts values during phase.
func (p FillPolicy) Allows(phase Phase) bool {
	switch phase {
	case PhaseInsert:
		return p == FillInsert || p == FillInsertUpdate
	case PhaseUpdate:
		return p == FillUpdate || p == FillInsertUpdate
	}
	return false
}

func (p FillPolicy) String() string {
	switch p {
	case FillInsert:
		return "insert"
	case FillUpdate:
		return "update"
	case FillInsertUpdate:
		return "insert_update"
	}
	return "none"
}

func parseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return FillNone, nil
	case "insert":
		return FillInsert, nil
	case "update":
		return FillUpdate, nil
	case "insert_update", "insertupdate":
		return FillInsertUpdate, nil
	}
	return FillNone, fmt.Errorf("unknown fill policy %q", s)
}

// IDType selects how a missing identifier is generated on insert.
type IDType int

const (
	// IDObjectID generates a bson.ObjectID. Identifier-shaped strings are
	// stored as ObjectIDs as well.
	IDObjectID IDType = iota
	// IDObjectIDHex generates an ObjectID and stores its hex string.
	IDObjectIDHex
	// IDUUID generates a random UUID string.
	IDUUID
	// IDAutoIncrement takes the next value of a per-collection counter.
	IDAutoIncrement
	// IDInput requires the caller to set the identifier.
	IDInput
)

func (t IDType) String() string {
	switch t {
	case IDObjectIDHex:
		return "hex"
	case IDUUID:
		return "uuid"
	case IDAutoIncrement:
		return "auto"
	case IDInput:
		return "input"
	}
	return "objectid"
}

func parseIDType(s string) (IDType, error) {
	switch strings.ToLower(s) {
	case "", "objectid":
		return IDObjectID, nil
	case "hex":
		return IDObjectIDHex, nil
	case "uuid":
		return IDUUID, nil
	case "auto", "autoincrement":
		return IDAutoIncrement, nil
	case "input":
		return IDInput, nil
	}
	return IDObjectID, fmt.Errorf("unknown id type %q", s)
}

// FieldDescriptor describes one mapped struct field. Descriptors are built
// once by the Introspector and never modified afterwards.
type FieldDescriptor struct {
	// GoName is the struct field name.
	GoName string
	// Name is the logical name callers use in conditions.
	Name string
	// WireName is the key in the stored document.
	WireName string
	Type     reflect.Type

	IsID   bool
	IDType IDType
	Fill   FillPolicy

	// Handler names a conversion.TypeHandler, or is empty.
	Handler string

	index []int
}

// Get returns the field's current value on entity, which must be a struct
// or a non-nil pointer to one.
func (f *FieldDescriptor) Get(entity any) any {
	return f.value(reflect.ValueOf(entity)).Interface()
}

// Set assigns v to the field. entity must be a non-nil struct pointer.
func (f *FieldDescriptor) Set(entity any, v any) error {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: cannot set %s on non-pointer %T", ErrMapping, f.GoName, entity)
	}
	dst := f.value(rv)
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(dst.Type()):
	case src.Type().ConvertibleTo(dst.Type()):
		src = src.Convert(dst.Type())
	default:
		return fmt.Errorf("%w: cannot assign %T to field %s (%s)", ErrMapping, v, f.GoName, dst.Type())
	}
	dst.Set(src)
	return nil
}

// IsZero reports whether the field holds its zero value on entity.
func (f *FieldDescriptor) IsZero(entity any) bool {
	return f.value(reflect.ValueOf(entity)).IsZero()
}

func (f *FieldDescriptor) value(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv.FieldByIndex(f.index)
}
