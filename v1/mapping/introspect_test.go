package mapping

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audit struct {
	CreatedAt time.Time `mongo:",fill=insert"`
	UpdatedAt time.Time `mongo:",fill=insert_update"`
}

type user struct {
	ID       string `mongo:",id"`
	UserName string
	Email    string `mongo:"mail"`
	Age      int    `bson:"years"`
	Password string `mongo:"-"`
	Ignored  string `bson:"-"`
	audit
	internal string
}

func (user) CollectionName() string { return "users" }
func (user) DataSourceName() string { return "slave" }

type orderLine struct {
	Sku string
	Qty int
}

type noID struct {
	Name string
}

type twoIDs struct {
	A string `mongo:",id"`
	B string `bson:"_id"`
}

type withChan struct {
	ID string `mongo:",id"`
	C  chan int
}

type badTag struct {
	ID string `mongo:",id,fill=sometimes"`
}

type sameKey struct {
	A string `mongo:"k"`
	B string `mongo:"k"`
}

func TestIntrospectFields(t *testing.T) {
	in := NewIntrospector(CamelCase)
	m, err := in.Introspect(reflect.TypeOf(user{}))
	require.NoError(t, err)

	var wires []string
	for _, f := range m.Fields() {
		wires = append(wires, f.WireName)
	}
	assert.Equal(t, []string{"_id", "userName", "mail", "years", "createdAt", "updatedAt"}, wires)

	id, ok := m.ID()
	require.True(t, ok)
	assert.Equal(t, "ID", id.GoName)
	assert.Equal(t, IDObjectID, id.IDType)

	f, ok := m.Field("createdAt")
	require.True(t, ok)
	assert.Equal(t, FillInsert, f.Fill)

	f, ok = m.Field("UpdatedAt")
	require.True(t, ok)
	assert.Equal(t, FillInsertUpdate, f.Fill)

	assert.Equal(t, "mail", m.WireName("email"))
	assert.Equal(t, "_id", m.WireName("id"))
	assert.Equal(t, "address.city", m.WireName("address.city"))

	_, ok = m.Field("password")
	assert.False(t, ok)

	assert.Equal(t, "users", m.Collection)
	assert.Equal(t, "slave", m.DataSource)
	assert.Equal(t, "", m.Database)
}

func TestIntrospectIsCached(t *testing.T) {
	in := NewIntrospector(CamelCase)

	first, err := in.Introspect(reflect.TypeOf(user{}))
	require.NoError(t, err)
	second, err := in.Introspect(reflect.TypeOf(&user{}))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, first.Fields(), second.Fields())
	assert.EqualValues(t, 1, in.builds.Load())
}

func TestIntrospectConcurrentFirstUse(t *testing.T) {
	in := NewIntrospector(SnakeCase)

	var wg sync.WaitGroup
	models := make([]*TypeModel, 64)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := ModelOf[orderLine](in)
			assert.NoError(t, err)
			models[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range models {
		assert.Same(t, models[0], m)
	}
	assert.EqualValues(t, 1, in.builds.Load())
	assert.Equal(t, "order_line", models[0].Collection)
}

func localItemA() reflect.Type {
	type item struct {
		ID string `mongo:",id"`
		A  int
	}
	return reflect.TypeOf(item{})
}

func localItemB() reflect.Type {
	type item struct {
		ID string `mongo:",id"`
		B  string
	}
	return reflect.TypeOf(item{})
}

func TestIntrospectDistinguishesSameNamedTypes(t *testing.T) {
	a, b := localItemA(), localItemB()
	require.Equal(t, a.String(), b.String())

	for range 20 {
		in := NewIntrospector(nil)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			typ := a
			if i%2 == 1 {
				typ = b
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				m, err := in.Introspect(typ)
				assert.NoError(t, err)
				assert.Equal(t, typ, m.Type)
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 2, in.builds.Load())
	}
}

func TestIntrospectErrors(t *testing.T) {
	in := NewIntrospector(nil)

	m, err := in.Introspect(reflect.TypeOf(noID{}))
	require.NoError(t, err)
	_, err = m.RequireID()
	assert.ErrorIs(t, err, ErrIdentifierMissing)
	assert.ErrorIs(t, err, ErrMapping)

	for _, v := range []any{twoIDs{}, withChan{}, badTag{}, sameKey{}, 42} {
		_, err := in.IntrospectValue(v)
		assert.ErrorIs(t, err, ErrMapping, "%T", v)
	}
}

func TestFieldAccessors(t *testing.T) {
	m, err := ModelOf[user](NewIntrospector(nil))
	require.NoError(t, err)

	u := &user{UserName: "ann"}
	f, _ := m.Field("userName")
	assert.Equal(t, "ann", f.Get(u))
	assert.Equal(t, "ann", f.Get(*u))

	id, _ := m.ID()
	assert.True(t, id.IsZero(u))
	require.NoError(t, id.Set(u, "abc"))
	assert.Equal(t, "abc", u.ID)

	age, _ := m.Field("age")
	require.NoError(t, age.Set(u, int64(41)))
	assert.Equal(t, 41, u.Age)

	assert.ErrorIs(t, age.Set(*u, 1), ErrMapping)
	assert.ErrorIs(t, age.Set(u, "x"), ErrMapping)
}
