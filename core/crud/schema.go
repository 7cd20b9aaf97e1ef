package crud

import "github.com/trezcool/schoolsite/core"

// Kind tells how a column is edited and validated.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
	KindDatetime
	KindEmail
)

// IsDate reports whether values of this kind must parse as a calendar date.
func (k Kind) IsDate() bool { return k == KindDate || k == KindDatetime }

// InputType is the HTML input type for the kind.
func (k Kind) InputType() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindDatetime:
		return "datetime-local"
	case KindEmail:
		return "email"
	}
	return "text"
}

// RenderFunc formats a raw value for display. Never used for input.
type RenderFunc func(v interface{}) string

// Column describes one field of an entity.
type Column struct {
	Key      string
	Label    string
	Required bool
	Kind     Kind
	Render   RenderFunc

	Hidden   bool   // edited in the form, not shown in the grid
	ReadOnly bool   // shown in the grid, never edited
	Lookup   string // name of the option list the form input picks from
}

// Display renders the column value of rec for the grid.
func (c Column) Display(rec Record) string {
	v := rec[c.Key]
	if c.Render != nil {
		return c.Render(v)
	}
	return Stringify(v)
}

// InputValue renders the column value of a draft for its form input.
func (c Column) InputValue(draft Record) string {
	v := draft[c.Key]
	if c.Kind == KindDatetime {
		if s, ok := v.(string); ok && s != "" {
			if t, err := core.ParseDate(s); err == nil {
				return core.FormatDatetimeForInput(t)
			}
		}
	}
	return Stringify(v)
}

// Schema is an ordered list of columns; order is display and input order.
type Schema []Column

// Grid returns the columns shown in the data grid.
func (s Schema) Grid() Schema {
	cols := make(Schema, 0, len(s))
	for _, c := range s {
		if !c.Hidden {
			cols = append(cols, c)
		}
	}
	return cols
}

// Form returns the columns edited in the add/edit dialog.
func (s Schema) Form() Schema {
	cols := make(Schema, 0, len(s))
	for _, c := range s {
		if !c.ReadOnly {
			cols = append(cols, c)
		}
	}
	return cols
}

// Keys returns the column keys in order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, c := range s {
		keys = append(keys, c.Key)
	}
	return keys
}

func (s Schema) Column(key string) (Column, bool) {
	for _, c := range s {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}
