package crud

import (
	"fmt"
	"strconv"
)

// IDKey is the identifier field every record carries.
const IDKey = "id"

// Record is one entity instance: field name to scalar value.
type Record map[string]interface{}

// ID returns the record identifier as a string, or "" when absent.
func (r Record) ID() string {
	return Stringify(r[IDKey])
}

// Clone returns a shallow copy; values are scalars so this is a full copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Merge returns a copy of r with every field of patch applied on top.
func (r Record) Merge(patch Record) Record {
	m := r.Clone()
	if m == nil {
		m = make(Record, len(patch))
	}
	for k, v := range patch {
		m[k] = v
	}
	return m
}

// Get returns the display string of a field.
func (r Record) Get(key string) string {
	return Stringify(r[key])
}

// Stringify coerces a raw field value to its display string; nil is "".
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

func cloneAll(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Clone())
	}
	return out
}
