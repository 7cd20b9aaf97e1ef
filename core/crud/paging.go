package crud

// Window is the paging state of a grid. Current starts at 1.
type Window struct {
	Current int
	PerPage int
	Total   int
}

// TotalPages is ceil(Total/PerPage), never less than 1.
func (w Window) TotalPages() int {
	if w.PerPage <= 0 {
		return 1
	}
	n := (w.Total + w.PerPage - 1) / w.PerPage
	if n < 1 {
		return 1
	}
	return n
}

func (w Window) HasPrev() bool { return w.Current > 1 }
func (w Window) HasNext() bool { return w.Current < w.TotalPages() }

// Clamp bounds n to [1, TotalPages].
func (w Window) Clamp(n int) int {
	if n < 1 {
		return 1
	}
	if last := w.TotalPages(); n > last {
		return last
	}
	return n
}

func (w Window) Page() Page {
	return Page{Number: w.Current, Size: w.PerPage}
}
