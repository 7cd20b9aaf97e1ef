package crud

import "context"

// Page addresses one page of a listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of records before the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Range returns the inclusive row range of the page.
func (p Page) Range() (from, to int) {
	from = p.Offset()
	return from, from + p.Size - 1
}

// ListResult is one page of records plus the authoritative total count.
type ListResult struct {
	Items []Record
	Total int
}

// Gateway translates the CRUD verbs of one entity into backend calls.
//
// Every failure is a *core.TransportError and means no change was persisted.
// Implementations hold no cached state.
type Gateway interface {
	List(ctx context.Context, page Page) (ListResult, error)
	Create(ctx context.Context, draft Record) (Record, error)
	Update(ctx context.Context, id string, draft Record) error
	Delete(ctx context.Context, id string) error
}

// Payload keeps the form fields of draft that a gateway may write.
func Payload(schema Schema, draft Record) Record {
	out := make(Record, len(schema))
	for _, c := range schema.Form() {
		if v, ok := draft[c.Key]; ok {
			out[c.Key] = v
		}
	}
	return out
}
