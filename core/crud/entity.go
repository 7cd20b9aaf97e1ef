package crud

import (
	"strings"
	"time"

	"github.com/trezcool/schoolsite/core"
)

const DefaultItemsPerPage = 10

// FieldDefault fills Key of an add draft when it is blank.
type FieldDefault struct {
	Key   string
	Value func(now time.Time) interface{}
}

// Entity configures one generic engine instance.
type Entity struct {
	Name   string // singular, lower case: "student"
	Plural string // "students"
	Title  string // "Students"

	Schema       Schema
	Gateway      Gateway
	Samples      []Record // shown when listing fails
	ItemsPerPage int

	Defaults []FieldDefault        // applied to add drafts before validation
	Stamp    func(Record, time.Time) // extra fields of an optimistic create
}

func (ent Entity) perPage() int {
	if ent.ItemsPerPage > 0 {
		return ent.ItemsPerPage
	}
	return DefaultItemsPerPage
}

// ApplyDefaults returns a copy of draft with every blank defaulted field filled.
func (ent Entity) ApplyDefaults(draft Record, now time.Time) Record {
	out := draft.Clone()
	if out == nil {
		out = make(Record)
	}
	for _, d := range ent.Defaults {
		if d.Value == nil {
			continue
		}
		if v, ok := out[d.Key]; !ok || core.IsBlank(v) {
			out[d.Key] = d.Value(now)
		}
	}
	return out
}

func (ent Entity) AddTitle() string  { return "Add New " + capitalize(ent.Name) }
func (ent Entity) EditTitle() string { return "Edit " + capitalize(ent.Name) }

// LoadingText is the indicator shown while action is in flight.
func (ent Entity) LoadingText(action Action) string {
	switch action {
	case ActionLoading:
		return "Loading " + ent.Plural + "..."
	case ActionAdding:
		return "Adding " + ent.Name + "..."
	case ActionEditing:
		return "Editing " + ent.Name + "..."
	case ActionDeleting:
		return "Deleting " + ent.Name + "..."
	}
	return ""
}

func (ent Entity) notice(action Action, failed bool) Notice {
	if failed {
		verb := map[Action]string{ActionAdding: "adding", ActionEditing: "editing", ActionDeleting: "deleting"}[action]
		return Notice{Level: NoticeError, Text: "Error " + verb + " " + ent.Name}
	}
	switch action {
	case ActionAdding:
		return Notice{Level: NoticeSuccess, Text: "New " + ent.Name + " information added successfully."}
	case ActionEditing:
		return Notice{Level: NoticeSuccess, Text: capitalize(ent.Name) + " information updated successfully."}
	}
	return Notice{Level: NoticeSuccess, Text: capitalize(ent.Name) + " deleted successfully."}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
