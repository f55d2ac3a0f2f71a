// Package analytics reports placed orders to a tracking backend.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/jx"
	"github.com/iancoleman/strcase"
	"github.com/shopspring/decimal"
)

// Field is a single key of a Props tree.
type Field struct {
	Key   string
	Value any
}

// Props is an ordered property tree. Values are strings, integers, bools,
// decimals, times, nil, nested Props or []Props.
type Props []Field

// Get returns the value stored under key.
func (p Props) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Camelize returns a copy of p with every key, at every depth, rewritten
// from snake_case to lowerCamelCase.
func (p Props) Camelize() Props {
	out := make(Props, len(p))
	for i, f := range p {
		out[i] = Field{Key: strcase.ToLowerCamel(f.Key), Value: camelizeValue(f.Value)}
	}
	return out
}

func camelizeValue(v any) any {
	switch v := v.(type) {
	case Props:
		return v.Camelize()
	case []Props:
		out := make([]Props, len(v))
		for i, p := range v {
			out[i] = p.Camelize()
		}
		return out
	default:
		return v
	}
}

// Encode writes p as a JSON object.
func (p Props) Encode(e *jx.Encoder) {
	e.ObjStart()
	for _, f := range p {
		e.FieldStart(f.Key)
		encodeValue(e, f.Value)
	}
	e.ObjEnd()
}

func encodeValue(e *jx.Encoder, v any) {
	switch v := v.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(v)
	case bool:
		e.Bool(v)
	case int:
		e.Int(v)
	case int64:
		e.Int64(v)
	case decimal.Decimal:
		// Monetary amounts keep two fraction digits as a JSON number.
		e.Raw([]byte(v.StringFixed(2)))
	case time.Time:
		e.Str(v.UTC().Format(time.RFC3339))
	case Props:
		v.Encode(e)
	case []Props:
		e.ArrStart()
		for _, p := range v {
			p.Encode(e)
		}
		e.ArrEnd()
	default:
		e.Str(fmt.Sprint(v))
	}
}

// ToMap converts p into plain maps for encoders that take map[string]any.
// Decimals become JSON numbers with two fraction digits, like Encode.
func (p Props) ToMap() map[string]any {
	out := make(map[string]any, len(p))
	for _, f := range p {
		out[f.Key] = mapValue(f.Value)
	}
	return out
}

func mapValue(v any) any {
	switch v := v.(type) {
	case decimal.Decimal:
		return json.Number(v.StringFixed(2))
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case Props:
		return v.ToMap()
	case []Props:
		out := make([]any, len(v))
		for i, p := range v {
			out[i] = p.ToMap()
		}
		return out
	default:
		return v
	}
}

// String returns the JSON form of p.
func (p Props) String() string {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	p.Encode(e)
	return e.String()
}
