package conversion

import (
	"math/big"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type status string

type priority int

func (p priority) String() string {
	switch p {
	case 1:
		return "LOW"
	case 2:
		return "HIGH"
	}
	return "UNKNOWN"
}

func (p *priority) UnmarshalText(b []byte) error {
	switch string(b) {
	case "LOW":
		*p = 1
	case "HIGH":
		*p = 2
	default:
		return strconv.ErrSyntax
	}
	return nil
}

type point struct{ X, Y int }

func TestRoundTrip(t *testing.T) {
	r := NewRegistry()
	ts := time.Date(2024, 3, 9, 12, 30, 45, 123_000_000, time.UTC)
	dec, err := bson.ParseDecimal128("12.50")
	require.NoError(t, err)

	values := []any{
		int(-7), int8(8), int16(-16), int32(32), int64(1 << 40),
		uint(7), uint8(8), uint16(16), uint32(32), uint64(64),
		float32(1.5), float64(2.25),
		"hello", true,
		[]byte{0x01, 0x02},
		ts,
		90 * time.Second,
		bson.NewObjectID(),
		dec,
		big.NewInt(0).Lsh(big.NewInt(1), 80),
		uuid.New(),
		status("ACTIVE"),
		priority(2),
	}

	for _, v := range values {
		t.Run(reflect.TypeOf(v).String(), func(t *testing.T) {
			stored, err := r.ConvertOnWrite(v)
			require.NoError(t, err)

			back, err := r.ConvertOnRead(stored, reflect.TypeOf(v))
			require.NoError(t, err)

			switch want := v.(type) {
			case time.Time:
				assert.True(t, want.Equal(back.(time.Time)))
			case *big.Int:
				assert.Equal(t, 0, want.Cmp(back.(*big.Int)))
			default:
				assert.Equal(t, v, back)
			}
		})
	}
}

func TestWriteShapes(t *testing.T) {
	r := NewRegistry()

	out, err := r.ConvertOnWrite([]int{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, bson.A{3, 1, 2}, out)

	out, err = r.ConvertOnWrite([]status{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, bson.A{"A", "B"}, out)

	raw := []byte("bytes")
	out, err = r.ConvertOnWrite(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	out, err = r.ConvertOnWrite(priority(1))
	require.NoError(t, err)
	assert.Equal(t, "LOW", out)

	out, err = r.ConvertOnWrite(point{X: 1})
	require.NoError(t, err)
	assert.Equal(t, point{X: 1}, out)

	_, err = r.ConvertOnWrite(make(chan int))
	assert.ErrorIs(t, err, ErrConversion)
}

func TestReadCoercions(t *testing.T) {
	r := NewRegistry()

	v, err := r.ConvertOnRead(int32(42), reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = r.ConvertOnRead(int64(42), reflect.TypeOf(int8(0)))
	require.NoError(t, err)
	assert.Equal(t, int8(42), v)

	_, err = r.ConvertOnRead(int64(300), reflect.TypeOf(int8(0)))
	assert.ErrorIs(t, err, ErrConversion)

	v, err = r.ConvertOnRead(int64(1700000000000), reflect.TypeOf(time.Time{}))
	require.NoError(t, err)
	assert.True(t, time.UnixMilli(1700000000000).Equal(v.(time.Time)))

	v, err = r.ConvertOnRead("2024-01-02T03:04:05", reflect.TypeOf(time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), v)

	v, err = r.ConvertOnRead("2024-01-02 03:04:05", reflect.TypeOf(time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), v)

	_, err = r.ConvertOnRead("yesterday", reflect.TypeOf(time.Time{}))
	assert.ErrorIs(t, err, ErrConversion)

	id := bson.NewObjectID()
	v, err = r.ConvertOnRead(id.Hex(), reflect.TypeOf(bson.ObjectID{}))
	require.NoError(t, err)
	assert.Equal(t, id, v)

	v, err = r.ConvertOnRead(id, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), v)

	v, err = r.ConvertOnRead(bson.A{int32(1), int32(2)}, reflect.TypeOf([]int{}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, v)

	v, err = r.ConvertOnRead(bson.D{{Key: "a", Value: "x"}}, reflect.TypeOf(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x"}, v)

	v, err = r.ConvertOnRead(int32(5), reflect.TypeOf((*int)(nil)))
	require.NoError(t, err)
	assert.Equal(t, 5, *v.(*int))

	v, err = r.ConvertOnRead(nil, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestResolveOrder(t *testing.T) {
	r := NewRegistry()

	assert.IsType(t, numericStrategy{}, r.Resolve(reflect.TypeOf(0)))
	assert.IsType(t, enumStrategy{}, r.Resolve(reflect.TypeOf(status(""))))
	assert.IsType(t, enumStrategy{}, r.Resolve(reflect.TypeOf(priority(0))))
	assert.IsType(t, objectStrategy{}, r.Resolve(reflect.TypeOf(point{})))

	r.Register(reflect.TypeOf(point{}), stringStrategy{})
	assert.IsType(t, stringStrategy{}, r.Resolve(reflect.TypeOf(point{})))
}

type score float64

func TestObjectFallback(t *testing.T) {
	r := NewRegistry()

	v, err := r.ConvertOnRead(int32(12), reflect.TypeOf(score(0)))
	require.NoError(t, err)
	assert.Equal(t, score(12), v)

	v, err = r.ConvertOnRead(point{X: 2}, reflect.TypeOf(point{}))
	require.NoError(t, err)
	assert.Equal(t, point{X: 2}, v)

	_, err = r.ConvertOnRead("nope", reflect.TypeOf(point{}))
	assert.ErrorIs(t, err, ErrConversion)
}

func TestEnumFromNumber(t *testing.T) {
	v, err := NewRegistry().ConvertOnRead(int64(1), reflect.TypeOf(priority(0)))
	require.NoError(t, err)
	assert.Equal(t, priority(1), v)
}

type upper struct{}

func (upper) Write(v any) (any, error) { return v.(string) + "!", nil }
func (upper) Read(raw any) (any, error) {
	s := raw.(string)
	return s[:len(s)-1], nil
}

func TestHandlers(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("bang", upper{})

	h, ok := r.Handler("bang")
	require.True(t, ok)
	out, err := h.Write("hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)

	_, ok = r.Handler("missing")
	assert.False(t, ok)
}

func TestConcurrentRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(reflect.TypeOf(point{}), objectStrategy{})
		}()
		go func() {
			defer wg.Done()
			_, err := r.ConvertOnRead(int32(1), reflect.TypeOf(int64(0)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
