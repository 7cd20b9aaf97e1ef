package echoweb

import (
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core/crud"
)

// BindDraft reads the form inputs of schema from the request body.
// Number inputs are converted when they parse; blank numbers become nil.
func BindDraft(ctx echo.Context, schema crud.Schema) (crud.Record, error) {
	values, err := ctx.FormParams()
	if err != nil {
		return nil, errors.Wrap(err, "reading form")
	}

	draft := make(crud.Record)
	for _, col := range schema.Form() {
		if _, ok := values[col.Key]; !ok {
			continue
		}
		val := values.Get(col.Key)
		switch col.Kind {
		case crud.KindNumber:
			draft[col.Key] = parseNumber(val)
		default:
			draft[col.Key] = val
		}
	}
	return draft, nil
}

func parseNumber(val string) interface{} {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return val // reported by validation
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}
