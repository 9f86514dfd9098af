package idgen

import (
	"context"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Aleph-Alpha/mongoplus/v1/conversion"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
)

// Assigner gives every inserted document an identifier. It is safe for
// concurrent use.
type Assigner struct {
	generators     map[mapping.IDType]Generator
	reg            *conversion.Registry
	convertObjects bool
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithGenerator replaces the generator for one identifier type.
func WithGenerator(t mapping.IDType, g Generator) Option {
	return func(a *Assigner) { a.generators[t] = g }
}

// WithRegistry sets the registry used to write generated identifiers back
// into entity fields.
func WithRegistry(reg *conversion.Registry) Option {
	return func(a *Assigner) { a.reg = reg }
}

// WithObjectIDConversion turns storing ObjectID-shaped strings as native
// ObjectIDs on or off. It is on by default.
func WithObjectIDConversion(enabled bool) Option {
	return func(a *Assigner) { a.convertObjects = enabled }
}

// NewAssigner returns an assigner whose counter identifiers come from store.
func NewAssigner(store CounterStore, opts ...Option) *Assigner {
	a := &Assigner{
		generators: map[mapping.IDType]Generator{
			mapping.IDObjectID:      ObjectID,
			mapping.IDObjectIDHex:   ObjectIDHex,
			mapping.IDUUID:          UUID,
			mapping.IDAutoIncrement: Counter(store),
		},
		reg:            conversion.Default(),
		convertObjects: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AssignID makes sure doc, the encoded form of entity, carries an _id and
// returns the document with _id as its first key together with the id.
//
// An explicit identifier is kept; a nil or zero-valued one (such as "" or a
// zero ObjectID) counts as missing. Only an ObjectID-shaped string under the
// default ObjectID id type is turned into a bson.ObjectID. A missing
// identifier is generated according to the field's id type and written
// back into entity when entity is a pointer.
func (a *Assigner) AssignID(ctx context.Context, model *mapping.TypeModel, entity any, doc bson.D) (bson.D, any, error) {
	idType := mapping.IDObjectID
	var field *mapping.FieldDescriptor
	if model != nil {
		if f, ok := model.ID(); ok {
			field, idType = f, f.IDType
		}
	}

	if v, rest, ok := splitID(doc); ok && !MissingID(v) {
		id := a.normalize(v, idType)
		return prepend(rest, id), id, nil
	}

	if idType == mapping.IDInput {
		return nil, nil, fmt.Errorf("%w: %s requires an explicit identifier", ErrIdentifierGeneration, typeName(model))
	}

	g, ok := a.generators[idType]
	if !ok || g == nil {
		return nil, nil, fmt.Errorf("%w: no generator for id type %s", ErrIdentifierGeneration, idType)
	}
	sequence := ""
	if model != nil {
		sequence = model.Collection
	}
	id, err := g.Generate(ctx, sequence)
	if err != nil {
		return nil, nil, err
	}
	if id == nil {
		return nil, nil, fmt.Errorf("%w: generator for %s returned nothing", ErrIdentifierGeneration, idType)
	}

	if field != nil && isSettable(entity) {
		if err := a.writeBack(field, entity, id); err != nil {
			return nil, nil, err
		}
	}

	_, rest, _ := splitID(doc)
	return prepend(rest, id), id, nil
}

// NormalizeID converts an identifier used in a filter the same way AssignID
// converts explicit identifiers on insert.
func (a *Assigner) NormalizeID(model *mapping.TypeModel, v any) any {
	idType := mapping.IDObjectID
	if model != nil {
		if f, ok := model.ID(); ok {
			idType = f.IDType
		}
	}
	return a.normalize(v, idType)
}

func (a *Assigner) normalize(v any, idType mapping.IDType) any {
	if !a.convertObjects || idType != mapping.IDObjectID {
		return v
	}
	s, ok := v.(string)
	if !ok || len(s) != 24 {
		return v
	}
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return v
	}
	return oid
}

func (a *Assigner) writeBack(field *mapping.FieldDescriptor, entity, id any) error {
	v, err := a.reg.ConvertOnRead(id, field.Type)
	if err != nil {
		return fmt.Errorf("%w: write back %s: %v", ErrIdentifierGeneration, field.GoName, err)
	}
	if err := field.Set(entity, v); err != nil {
		return fmt.Errorf("%w: %v", ErrIdentifierGeneration, err)
	}
	return nil
}

func splitID(doc bson.D) (any, bson.D, bool) {
	for i, e := range doc {
		if e.Key == mapping.IDWireName {
			rest := make(bson.D, 0, len(doc)-1)
			rest = append(rest, doc[:i]...)
			rest = append(rest, doc[i+1:]...)
			return e.Value, rest, true
		}
	}
	return nil, doc, false
}

func prepend(doc bson.D, id any) bson.D {
	out := make(bson.D, 0, len(doc)+1)
	out = append(out, bson.E{Key: mapping.IDWireName, Value: id})
	return append(out, doc...)
}

// MissingID reports whether v stands for an absent identifier: nil, a nil
// pointer, or the zero value of its type.
func MissingID(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}

func isSettable(entity any) bool {
	rv := reflect.ValueOf(entity)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}

func typeName(model *mapping.TypeModel) string {
	if model == nil || model.Type == nil {
		return "document"
	}
	return model.Type.String()
}
