package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
	logsvc "github.com/trezcool/schoolsite/services/logger"
)

// FixedNow is the clock of engines built by NewEngine.
var FixedNow = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

func NewValidator() *crud.Validator {
	return crud.NewValidator(core.NewValidator())
}

// NewEngine returns an engine over ent with a recording logger and a fixed clock.
func NewEngine(ent crud.Entity) (*crud.Engine, *logsvc.NopLogger) {
	logger := logsvc.NewNopLogger()
	return crud.NewEngine(ent, NewValidator(), logger, crud.WithClock(func() time.Time { return FixedNow })), logger
}

// CreateRecords creates records through gw and returns what it stored.
func CreateRecords(t *testing.T, gw crud.Gateway, recs ...crud.Record) []crud.Record {
	t.Helper()
	out := make([]crud.Record, 0, len(recs))
	for _, rec := range recs {
		created, err := gw.Create(context.Background(), rec)
		if err != nil {
			t.Fatalf("createRecords() failed: %v", err)
		}
		out = append(out, created)
	}
	return out
}

// Numbered returns n course-like records named "Course 1".."Course n".
func Numbered(n int) []crud.Record {
	recs := make([]crud.Record, 0, n)
	for i := 1; i <= n; i++ {
		recs = append(recs, crud.Record{"name": "Course " + strconv.Itoa(i), "credits": i % 5})
	}
	return recs
}
