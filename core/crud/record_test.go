package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		want string
	}{
		{name: "nil", v: nil, want: ""},
		{name: "string", v: "x", want: "x"},
		{name: "int", v: 4, want: "4"},
		{name: "json number", v: float64(4), want: "4"},
		{name: "fraction", v: 2.5, want: "2.5"},
		{name: "bool", v: true, want: "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.v); got != tt.want {
				t.Errorf("Stringify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumn_Display(t *testing.T) {
	rec := Record{"department": nil, "credits": 4}
	assert.Equal(t, "", Column{Key: "department"}.Display(rec))
	assert.Equal(t, "", Column{Key: "missing"}.Display(rec))
	assert.Equal(t, "4", Column{Key: "credits"}.Display(rec))

	unknown := Column{Key: "department", Render: func(v interface{}) string {
		if v == nil {
			return "Unknown"
		}
		return Stringify(v)
	}}
	assert.Equal(t, "Unknown", unknown.Display(rec))
}

func TestRecord_Merge(t *testing.T) {
	orig := Record{"id": "2", "name": "Advanced Mathematics", "credits": 4}
	merged := orig.Merge(Record{"credits": 5})

	assert.Equal(t, Record{"id": "2", "name": "Advanced Mathematics", "credits": 5}, merged)
	assert.Equal(t, 4, orig["credits"], "Merge must not mutate the receiver")
	assert.Equal(t, "2", merged.ID())
}
