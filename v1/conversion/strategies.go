package conversion

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// DateTimeLayout is the fixed pattern used for string timestamps. A "T"
// separator is accepted in place of the space.
const DateTimeLayout = "2006-01-02 15:04:05"

const (
	dateLayout        = "2006-01-02"
	binarySubtypeUUID = 0x04
)

var (
	errOverflow    = errors.New("value out of range")
	errUnsupported = errors.New("unsupported source type")
)

type numericStrategy struct{}

func (numericStrategy) Write(v any) (any, error) {
	return v, nil
}

func (numericStrategy) Read(raw any, target reflect.Type) (any, error) {
	out := reflect.New(target).Elem()
	switch k := target.Kind(); {
	case isInt(k):
		i, err := toInt64(raw)
		if err != nil {
			return nil, conversionError(raw, target, err)
		}
		if out.OverflowInt(i) {
			return nil, conversionError(raw, target, errOverflow)
		}
		out.SetInt(i)
	case isUint(k):
		i, err := toInt64(raw)
		if err != nil {
			if u, uerr := toUint64(raw); uerr == nil {
				if out.OverflowUint(u) {
					return nil, conversionError(raw, target, errOverflow)
				}
				out.SetUint(u)
				return out.Interface(), nil
			}
			return nil, conversionError(raw, target, err)
		}
		if i < 0 || out.OverflowUint(uint64(i)) {
			return nil, conversionError(raw, target, errOverflow)
		}
		out.SetUint(uint64(i))
	case isFloat(k):
		f, err := toFloat64(raw)
		if err != nil {
			return nil, conversionError(raw, target, err)
		}
		if k == reflect.Float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && out.OverflowFloat(f) {
			return nil, conversionError(raw, target, errOverflow)
		}
		out.SetFloat(f)
	default:
		return nil, conversionError(raw, target, errUnsupported)
	}
	return out.Interface(), nil
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case bson.Decimal128:
		return toInt64(v.String())
	case bool:
		return 0, errUnsupported
	}

	rv := reflect.ValueOf(raw)
	switch k := rv.Kind(); {
	case isInt(k):
		return rv.Int(), nil
	case isUint(k):
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errOverflow
		}
		return int64(u), nil
	case isFloat(k):
		return floatToInt64(rv.Float())
	}
	return 0, errUnsupported
}

func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	case bson.Decimal128:
		return strconv.ParseUint(v.String(), 10, 64)
	}
	rv := reflect.ValueOf(raw)
	if isUint(rv.Kind()) {
		return rv.Uint(), nil
	}
	return 0, errUnsupported
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < -9.223372036854775808e18 || f >= 9.223372036854775808e18 {
		return 0, errOverflow
	}
	return int64(f), nil
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bson.Decimal128:
		return strconv.ParseFloat(v.String(), 64)
	case bool:
		return 0, errUnsupported
	}
	rv := reflect.ValueOf(raw)
	switch k := rv.Kind(); {
	case isInt(k):
		return float64(rv.Int()), nil
	case isUint(k):
		return float64(rv.Uint()), nil
	case isFloat(k):
		return rv.Float(), nil
	}
	return 0, errUnsupported
}

type stringStrategy struct{}

func (stringStrategy) Write(v any) (any, error) {
	return v, nil
}

func (stringStrategy) Read(raw any, target reflect.Type) (any, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case bson.ObjectID:
		s = v.Hex()
	case bson.DateTime:
		s = v.Time().UTC().Format(DateTimeLayout)
	case time.Time:
		s = v.Format(DateTimeLayout)
	case []byte:
		s = string(v)
	case bson.Binary:
		if id, err := uuid.FromBytes(v.Data); err == nil && v.Subtype == binarySubtypeUUID {
			s = id.String()
		} else {
			s = string(v.Data)
		}
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(raw)
	}
	return reflect.ValueOf(s).Convert(target).Interface(), nil
}

type boolStrategy struct{}

func (boolStrategy) Write(v any) (any, error) {
	return v, nil
}

func (boolStrategy) Read(raw any, target reflect.Type) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, conversionError(raw, target, err)
		}
		return b, nil
	}
	f, err := toFloat64(raw)
	if err != nil {
		return nil, conversionError(raw, target, err)
	}
	return f != 0, nil
}

type bytesStrategy struct{}

func (bytesStrategy) Write(v any) (any, error) {
	return v, nil
}

func (bytesStrategy) Read(raw any, target reflect.Type) (any, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case bson.Binary:
		return v.Data, nil
	case string:
		return []byte(v), nil
	}
	return nil, conversionError(raw, target, errUnsupported)
}

type timeStrategy struct{}

func (timeStrategy) Write(v any) (any, error) {
	return bson.NewDateTimeFromTime(v.(time.Time)), nil
}

func (timeStrategy) Read(raw any, target reflect.Type) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case bson.DateTime:
		return v.Time().UTC(), nil
	case bson.Timestamp:
		return time.Unix(int64(v.T), 0).UTC(), nil
	case string:
		t, err := ParseTime(v)
		if err != nil {
			return nil, conversionError(raw, target, err)
		}
		return t, nil
	}
	millis, err := toInt64(raw)
	if err != nil {
		return nil, conversionError(raw, target, err)
	}
	return time.UnixMilli(millis).UTC(), nil
}

// ParseTime parses RFC 3339, DateTimeLayout (with either a space or a "T"
// separator) or a bare date, in that order. Zoneless values are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateTimeLayout, strings.Replace(s, "T", " ", 1), time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
	}
	return t, nil
}

type durationStrategy struct{}

func (durationStrategy) Write(v any) (any, error) {
	return int64(v.(time.Duration)), nil
}

func (durationStrategy) Read(raw any, target reflect.Type) (any, error) {
	if s, ok := raw.(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}
	n, err := toInt64(raw)
	if err != nil {
		return nil, conversionError(raw, target, err)
	}
	return time.Duration(n), nil
}

type objectIDStrategy struct{}

func (objectIDStrategy) Write(v any) (any, error) {
	return v, nil
}

func (objectIDStrategy) Read(raw any, target reflect.Type) (any, error) {
	switch v := raw.(type) {
	case bson.ObjectID:
		return v, nil
	case string:
		id, err := bson.ObjectIDFromHex(v)
		if err != nil {
			return nil, conversionError(raw, target, err)
		}
		return id, nil
	case [12]byte:
		return bson.ObjectID(v), nil
	}
	return nil, conversionError(raw, target, errUnsupported)
}

type decimalStrategy struct{}

func (decimalStrategy) Write(v any) (any, error) {
	return v, nil
}

func (decimalStrategy) Read(raw any, target reflect.Type) (any, error) {
	var s string
	switch v := raw.(type) {
	case bson.Decimal128:
		return v, nil
	case string:
		s = v
	default:
		f, err := toFloat64(raw)
		if err != nil {
			return nil, conversionError(raw, target, err)
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	d, err := bson.ParseDecimal128(s)
	if err != nil {
		return nil, conversionError(raw, target, err)
	}
	return d, nil
}

// bigIntStrategy stores *big.Int as its decimal string so no precision is lost.
type bigIntStrategy struct{}

func (bigIntStrategy) Write(v any) (any, error) {
	b := v.(*big.Int)
	if b == nil {
		return nil, nil
	}
	return b.String(), nil
}

func (bigIntStrategy) Read(raw any, target reflect.Type) (any, error) {
	switch v := raw.(type) {
	case *big.Int:
		return v, nil
	case string:
		b, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
		if !ok {
			return nil, conversionError(raw, target, fmt.Errorf("invalid integer %q", v))
		}
		return b, nil
	case bson.Decimal128:
		return bigIntStrategy{}.Read(v.String(), target)
	}
	rv := reflect.ValueOf(raw)
	switch k := rv.Kind(); {
	case isInt(k):
		return big.NewInt(rv.Int()), nil
	case isUint(k):
		return new(big.Int).SetUint64(rv.Uint()), nil
	case isFloat(k):
		b, acc := big.NewFloat(rv.Float()).Int(nil)
		if acc != big.Exact {
			return nil, conversionError(raw, target, errors.New("not an integer"))
		}
		return b, nil
	}
	return nil, conversionError(raw, target, errUnsupported)
}

type uuidStrategy struct{}

func (uuidStrategy) Write(v any) (any, error) {
	return v.(uuid.UUID).String(), nil
}

func (uuidStrategy) Read(raw any, target reflect.Type) (any, error) {
	var (
		id  uuid.UUID
		err error
	)
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err = uuid.Parse(v)
	case bson.Binary:
		id, err = uuid.FromBytes(v.Data)
	case []byte:
		id, err = uuid.FromBytes(v)
	default:
		err = errUnsupported
	}
	if err != nil {
		return nil, conversionError(raw, target, err)
	}
	return id, nil
}

// enumStrategy stores enum-like values under their name.
type enumStrategy struct{}

func (enumStrategy) Write(v any) (any, error) {
	if s, ok := v.(fmt.Stringer); ok && reflect.TypeOf(v).Kind() != reflect.String {
		return s.String(), nil
	}
	return reflect.ValueOf(v).String(), nil
}

func (enumStrategy) Read(raw any, target reflect.Type) (any, error) {
	s, ok := raw.(string)
	if !ok {
		if isInt(target.Kind()) || isUint(target.Kind()) {
			return numericStrategy{}.Read(raw, target)
		}
		s = fmt.Sprint(raw)
	}
	if reflect.PointerTo(target).Implements(textUnmarshalerType) {
		p := reflect.New(target)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return nil, conversionError(raw, target, err)
		}
		return p.Elem().Interface(), nil
	}
	if target.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(target).Interface(), nil
	}
	return nil, conversionError(raw, target, fmt.Errorf("%s does not implement encoding.TextUnmarshaler", target))
}

// objectStrategy is the fallback for types with no registration. Writes pass
// through to the driver; reads assign, convert or stringify.
type objectStrategy struct{}

func (objectStrategy) Write(v any) (any, error) {
	return v, nil
}

func (objectStrategy) Read(raw any, target reflect.Type) (any, error) {
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(target) {
		return raw, nil
	}

	switch k := target.Kind(); {
	case isInt(k) || isUint(k) || isFloat(k):
		return numericStrategy{}.Read(raw, target)
	case k == reflect.String:
		return stringStrategy{}.Read(raw, target)
	case k == reflect.Bool:
		v, err := boolStrategy{}.Read(raw, target)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(target).Interface(), nil
	case k == reflect.Slice && target.Elem().Kind() == reflect.Uint8:
		if b, ok := raw.(bson.Binary); ok {
			return reflect.ValueOf(b.Data).Convert(target).Interface(), nil
		}
	}

	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface(), nil
	}
	return nil, conversionError(raw, target, errUnsupported)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
