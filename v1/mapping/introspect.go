package mapping

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// TagName is the struct tag read by the Introspector:
//
//	ID      string    `mongo:",id"`
//	Name    string    `mongo:"user_name"`
//	Created time.Time `mongo:",fill=insert"`
//	Secret  string    `mongo:"-"`
//
// Options after the name are id, fill=<insert|update|insert_update>,
// handler=<registered handler> and idtype=<objectid|hex|uuid|auto|input>.
// Without a mongo name, a bson tag name is used, then the naming strategy.
const TagName = "mongo"

// Introspector builds and caches TypeModels. Lookups are lock-free once a
// type is cached; concurrent first use of a type builds its model once.
type Introspector struct {
	naming NamingStrategy

	cache  sync.Map // reflect.Type -> *modelEntry
	builds atomic.Int64
}

// modelEntry builds one type's model exactly once. Build errors are kept;
// a type that fails once always fails.
type modelEntry struct {
	once  sync.Once
	model *TypeModel
	err   error
}

// NewIntrospector returns an introspector using naming for wire names.
// A nil strategy means CamelCase.
func NewIntrospector(naming NamingStrategy) *Introspector {
	if naming == nil {
		naming = CamelCase
	}
	return &Introspector{naming: naming}
}

var defaultIntrospector = NewIntrospector(CamelCase)

// Default returns the process-wide CamelCase introspector.
func Default() *Introspector {
	return defaultIntrospector
}

// Naming returns the introspector's naming strategy.
func (in *Introspector) Naming() NamingStrategy {
	return in.naming
}

// Introspect returns the model for t. Pointer types are dereferenced.
func (in *Introspector) Introspect(t reflect.Type) (*TypeModel, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct type", ErrMapping, t)
	}

	v, ok := in.cache.Load(t)
	if !ok {
		v, _ = in.cache.LoadOrStore(t, &modelEntry{})
	}
	e := v.(*modelEntry)
	e.once.Do(func() {
		e.model, e.err = in.build(t)
	})
	return e.model, e.err
}

// IntrospectValue returns the model for v's dynamic type.
func (in *Introspector) IntrospectValue(v any) (*TypeModel, error) {
	return in.Introspect(reflect.TypeOf(v))
}

// ModelOf returns the model for T using in.
func ModelOf[T any](in *Introspector) (*TypeModel, error) {
	return in.Introspect(reflect.TypeOf((*T)(nil)).Elem())
}

func (in *Introspector) build(t reflect.Type) (*TypeModel, error) {
	in.builds.Add(1)

	m := &TypeModel{
		Type:   t,
		byName: map[string]*FieldDescriptor{},
	}
	if err := in.collect(m, t, nil); err != nil {
		return nil, err
	}

	m.Collection = in.naming.ToWire(lowerCamel(t.Name()))
	probe := reflect.New(t).Interface()
	if n, ok := probe.(CollectionNamer); ok && n.CollectionName() != "" {
		m.Collection = n.CollectionName()
	}
	if n, ok := probe.(DatabaseNamer); ok {
		m.Database = n.DatabaseName()
	}
	if n, ok := probe.(DataSourceNamer); ok {
		m.DataSource = n.DataSourceName()
	}
	return m, nil
}

func (in *Introspector) collect(m *TypeModel, t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		opts, skip, err := parseTag(sf)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrMapping, t.Name(), sf.Name, err)
		}
		if skip {
			continue
		}

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && opts.name == "" {
			if err := in.collect(m, sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		if opts.handler == "" {
			if err := checkMappable(sf.Type); err != nil {
				return fmt.Errorf("%w: %s.%s: %v", ErrMapping, t.Name(), sf.Name, err)
			}
		}

		name := lowerCamel(sf.Name)
		wire := opts.name
		if wire == "" {
			wire = in.naming.ToWire(name)
		}

		fd := &FieldDescriptor{
			GoName:   sf.Name,
			Name:     name,
			WireName: wire,
			Type:     sf.Type,
			Fill:     opts.fill,
			Handler:  opts.handler,
			IDType:   opts.idType,
			index:    index,
		}

		if opts.id || wire == IDWireName {
			if m.id != nil {
				return fmt.Errorf("%w: %s declares more than one id field (%s, %s)", ErrMapping, t.Name(), m.id.GoName, sf.Name)
			}
			fd.IsID = true
			fd.WireName = IDWireName
			m.id = fd
		}

		if prev, ok := m.byName[fd.WireName]; ok && prev.WireName == fd.WireName {
			return fmt.Errorf("%w: %s maps %s and %s to the same key %q", ErrMapping, t.Name(), prev.GoName, sf.Name, fd.WireName)
		}

		m.fields = append(m.fields, fd)
		for _, key := range []string{fd.WireName, fd.Name, fd.GoName} {
			if _, taken := m.byName[key]; !taken {
				m.byName[key] = fd
			}
		}
	}
	return nil
}

type tagOptions struct {
	name    string
	id      bool
	fill    FillPolicy
	handler string
	idType  IDType
}

func parseTag(sf reflect.StructField) (tagOptions, bool, error) {
	var opts tagOptions

	tag, hasTag := sf.Tag.Lookup(TagName)
	if tag == "-" {
		return opts, true, nil
	}
	if !hasTag {
		if b, ok := sf.Tag.Lookup("bson"); ok {
			name, _, _ := strings.Cut(b, ",")
			if name == "-" {
				return opts, true, nil
			}
			opts.name = name
		}
		return opts, false, nil
	}

	parts := strings.Split(tag, ",")
	opts.name = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(p), "=")
		var err error
		switch key {
		case "id":
			opts.id = true
		case "fill":
			opts.fill, err = parseFillPolicy(value)
		case "handler":
			opts.handler = value
		case "idtype":
			opts.idType, err = parseIDType(value)
		case "":
		default:
			err = fmt.Errorf("unknown tag option %q", key)
		}
		if err != nil {
			return opts, false, err
		}
	}
	return opts, false, nil
}

// checkMappable rejects kinds that have no stored representation.
func checkMappable(t reflect.Type) error {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return fmt.Errorf("map key type %s is not a string", t.Key())
			}
			t = t.Elem()
		case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128, reflect.Uintptr:
			return fmt.Errorf("type %s has no conversion strategy", t)
		default:
			return nil
		}
	}
}
