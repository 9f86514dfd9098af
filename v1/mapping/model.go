package mapping

import (
	"fmt"
	"reflect"
)

// TypeModel is the ordered field table for one entity type, plus its
// collection bindings.
type TypeModel struct {
	Type reflect.Type

	// Collection defaults to the type name run through the naming strategy
	// with a lower-case first letter. Entities override it by implementing
	// CollectionNamer.
	Collection string
	Database   string
	DataSource string

	fields []*FieldDescriptor
	id     *FieldDescriptor
	byName map[string]*FieldDescriptor
}

// CollectionNamer binds an entity type to a collection.
type CollectionNamer interface {
	CollectionName() string
}

// DatabaseNamer binds an entity type to a database.
type DatabaseNamer interface {
	DatabaseName() string
}

// DataSourceNamer binds an entity type to a configured datasource.
type DataSourceNamer interface {
	DataSourceName() string
}

// Fields returns the mapped fields in declaration order. Embedded structs
// are flattened in place.
func (m *TypeModel) Fields() []*FieldDescriptor {
	return m.fields
}

// ID returns the identifier field, if the type has one.
func (m *TypeModel) ID() (*FieldDescriptor, bool) {
	return m.id, m.id != nil
}

// RequireID returns the identifier field or ErrIdentifierMissing.
func (m *TypeModel) RequireID() (*FieldDescriptor, error) {
	if m.id == nil {
		return nil, fmt.Errorf("%w: type %s has no field tagged as id", ErrIdentifierMissing, m.Type)
	}
	return m.id, nil
}

// Field looks a field up by logical name, wire name or Go name.
func (m *TypeModel) Field(name string) (*FieldDescriptor, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// WireName maps a column used in a condition to its stored key. Unknown
// names, including dotted paths, are returned as they are.
func (m *TypeModel) WireName(column string) string {
	if f, ok := m.byName[column]; ok {
		return f.WireName
	}
	return column
}
