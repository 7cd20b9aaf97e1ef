package crud_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/storage/database/inmem"
	"github.com/trezcool/schoolsite/tests"
)

var courseSchema = crud.Schema{
	{Key: "name", Label: "Course Name", Required: true},
	{Key: "description", Label: "Description"},
	{Key: "credits", Label: "Credits", Kind: crud.KindNumber},
}

func courseSamples() []crud.Record {
	return []crud.Record{
		{"id": "1", "name": "Introduction to Computer Science", "credits": 3},
		{"id": "2", "name": "Advanced Mathematics", "credits": 4},
		{"id": "3", "name": "World History", "credits": 3},
	}
}

func newCourseEntity(gw crud.Gateway) crud.Entity {
	return crud.Entity{
		Name:    "course",
		Plural:  "courses",
		Title:   "Courses",
		Schema:  courseSchema,
		Gateway: gw,
		Samples: courseSamples(),
	}
}

func newTable(t *testing.T, n int) *inmemdb.Table {
	t.Helper()
	table := inmemdb.Open().Table("course")
	table.Insert(testutil.Numbered(n)...)
	return table
}

func TestEngine_Load(t *testing.T) {
	table := newTable(t, 25)
	eng, _ := testutil.NewEngine(newCourseEntity(table))

	eng.Load(context.Background())

	snap := eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Equal(t, crud.SourceRemote, snap.Source)
	assert.Len(t, snap.Records, 10)
	assert.Equal(t, crud.Window{Current: 1, PerPage: 10, Total: 25}, snap.Window)
	assert.Equal(t, "Course 1", snap.Records[0].Get("name"))
}

// itemsPerPage=10, totalCount=25: page 3 is the last page.
func TestEngine_SetPage_lastPage(t *testing.T) {
	table := newTable(t, 25)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()

	eng.Load(ctx)
	eng.SetPage(ctx, 3)

	snap := eng.Snapshot()
	assert.Equal(t, 3, snap.Window.TotalPages())
	assert.Equal(t, 3, snap.Window.Current)
	assert.False(t, snap.Window.HasNext())
	assert.True(t, snap.Window.HasPrev())
	assert.Len(t, snap.Records, 5)
	assert.Equal(t, "Course 21", snap.Records[0].Get("name"))
	assert.Equal(t, 2, table.Calls(inmemdb.OpList), "every page change lists again")

	eng.SetPage(ctx, 9)
	assert.Equal(t, 3, eng.Snapshot().Window.Current)

	eng.PrevPage(ctx)
	assert.Equal(t, 2, eng.Snapshot().Window.Current)
	eng.NextPage(ctx)
	assert.Equal(t, 3, eng.Snapshot().Window.Current)
	assert.Equal(t, 5, table.Calls(inmemdb.OpList))
}

func TestEngine_Load_fallback(t *testing.T) {
	table := newTable(t, 25)
	table.Fail(inmemdb.OpList)
	eng, logger := testutil.NewEngine(newCourseEntity(table))

	eng.Load(context.Background())

	snap := eng.Snapshot()
	assert.Equal(t, crud.SourceFallback, snap.Source)
	assert.Equal(t, courseSamples(), snap.Records)
	assert.Equal(t, 3, snap.Window.Total)
	assert.Equal(t, 1, snap.Window.TotalPages())
	assert.Len(t, logger.Entries("error"), 1)

	// samples are copies
	snap.Records[0]["name"] = "changed"
	assert.Equal(t, "Introduction to Computer Science", eng.Snapshot().Records[0].Get("name"))

	table.Recover()
	eng.Load(context.Background())
	assert.Equal(t, crud.SourceRemote, eng.Snapshot().Source)
	assert.Equal(t, 25, eng.Snapshot().Window.Total)
}

func TestEngine_Submit_invalid(t *testing.T) {
	table := newTable(t, 0)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()

	require.NoError(t, eng.OpenAdd())
	require.NoError(t, eng.SetFields(crud.Record{"name": "   ", "credits": 2}))

	err := eng.Submit(ctx)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	snap := eng.Snapshot()
	assert.Equal(t, crud.StateDialogOpen, snap.State)
	assert.Equal(t, crud.DialogAdd, snap.Dialog)
	assert.Equal(t, map[string]string{"name": "Course Name is required"}, snap.Errors)
	assert.Equal(t, 0, table.Calls(inmemdb.OpCreate), "invalid drafts never reach the gateway")

	// errors clear on the next attempt
	require.NoError(t, eng.SetField("name", "Algebra"))
	require.NoError(t, eng.Submit(ctx))
	snap = eng.Snapshot()
	assert.Nil(t, snap.Errors)
	assert.Equal(t, crud.StateIdle, snap.State)
}

func TestEngine_Submit_createOnce(t *testing.T) {
	table := newTable(t, 2)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)

	require.NoError(t, eng.OpenAdd())
	require.NoError(t, eng.SetFields(crud.Record{"name": "Physics", "credits": 4}))
	require.NoError(t, eng.Submit(ctx))

	snap := eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Equal(t, crud.DialogNone, snap.Dialog)
	assert.Nil(t, snap.Draft)
	assert.Equal(t, 1, table.Calls(inmemdb.OpCreate))
	assert.Equal(t, 2, table.Calls(inmemdb.OpList))
	assert.Equal(t, 3, snap.Window.Total)

	var found int
	for _, r := range snap.Records {
		if r.Get("name") == "Physics" {
			found++
			assert.NotEmpty(t, r.ID())
		}
	}
	assert.Equal(t, 1, found)

	// a later refresh does not duplicate it
	eng.Load(ctx)
	found = 0
	for _, r := range eng.Snapshot().Records {
		if r.Get("name") == "Physics" {
			found++
		}
	}
	assert.Equal(t, 1, found)
	assert.Equal(t, &crud.Notice{Level: crud.NoticeSuccess, Text: "New course information added successfully."}, eng.TakeNotice())
	assert.Nil(t, eng.TakeNotice(), "notices are taken once")
}

func TestEngine_Submit_createFails(t *testing.T) {
	table := newTable(t, 2)
	eng, logger := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)
	table.Fail(inmemdb.OpCreate)

	require.NoError(t, eng.OpenAdd())
	require.NoError(t, eng.SetFields(crud.Record{"name": "Physics"}))
	require.NoError(t, eng.Submit(ctx), "transport errors are absorbed")

	snap := eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Nil(t, snap.Draft)
	assert.Equal(t, crud.SourceFallback, snap.Source)
	require.Len(t, snap.Records, 3)
	last := snap.Records[2]
	assert.Equal(t, "Physics", last.Get("name"))
	assert.Equal(t, "1709631000000", last.ID(), "optimistic records are stamped with the clock")
	assert.Equal(t, 2, snap.Window.Total, "total is only authoritative after a list")
	assert.Equal(t, 1, table.Calls(inmemdb.OpList), "no refresh after a failed create")
	assert.Len(t, logger.Entries("error"), 1)
	assert.Equal(t, &crud.Notice{Level: crud.NoticeError, Text: "Error adding course"}, eng.TakeNotice())
}

func TestEngine_Submit_update(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Insert(courseSamples()...)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)

	require.NoError(t, eng.OpenEdit("2"))
	snap := eng.Snapshot()
	assert.Equal(t, crud.DialogEdit, snap.Dialog)
	assert.Equal(t, courseSamples()[1], snap.Draft)
	assert.Equal(t, courseSamples()[1], snap.Editing)

	require.NoError(t, eng.SetField("credits", 5))
	require.NoError(t, eng.Submit(ctx))

	snap = eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Equal(t, crud.SourceRemote, snap.Source)
	assert.Equal(t, 5, snap.Records[1]["credits"])
	assert.Equal(t, "Advanced Mathematics", snap.Records[1].Get("name"))
}

func TestEngine_Submit_updateFails(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Insert(courseSamples()...)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)
	table.Fail(inmemdb.OpUpdate)

	require.NoError(t, eng.OpenEdit("2"))
	require.NoError(t, eng.SetField("credits", 5))
	require.NoError(t, eng.Submit(ctx))

	snap := eng.Snapshot()
	assert.Equal(t, crud.SourceFallback, snap.Source)
	require.Len(t, snap.Records, 3)
	assert.Equal(t, crud.Record{"id": "2", "name": "Advanced Mathematics", "credits": 5}, snap.Records[1], "spliced in place")
	assert.Equal(t, &crud.Notice{Level: crud.NoticeError, Text: "Error editing course"}, eng.TakeNotice())
}

func TestEngine_OpenEdit_unknown(t *testing.T) {
	eng, _ := testutil.NewEngine(newCourseEntity(newTable(t, 0)))
	assert.ErrorIs(t, eng.OpenEdit("nope"), crud.ErrNotFound)
	assert.Equal(t, crud.StateIdle, eng.Snapshot().State)
}

func TestEngine_SetFields(t *testing.T) {
	eng, _ := testutil.NewEngine(newCourseEntity(newTable(t, 0)))
	assert.Equal(t, crud.ErrNoDialog, eng.SetField("name", "x"))

	require.NoError(t, eng.OpenAdd())
	assert.ErrorIs(t, eng.SetField("id", "42"), crud.ErrUnknownKey)
	assert.Equal(t, crud.ErrNoDialog, func() error { eng.Cancel(); return eng.Submit(context.Background()) }())
}

// Edit opened on {id:"2", name:"Advanced Mathematics", credits:4} then cancelled.
func TestEngine_Cancel(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Fail(inmemdb.OpList)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	eng.Load(context.Background())
	calls := func() int {
		return table.Calls(inmemdb.OpList) + table.Calls(inmemdb.OpCreate) +
			table.Calls(inmemdb.OpUpdate) + table.Calls(inmemdb.OpDelete)
	}
	before := calls()

	require.NoError(t, eng.OpenEdit("2"))
	require.NoError(t, eng.SetField("credits", 9))
	eng.Cancel()

	snap := eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Equal(t, crud.DialogNone, snap.Dialog)
	assert.Nil(t, snap.Draft)
	assert.Nil(t, snap.Editing)
	assert.Nil(t, snap.Errors)
	assert.Equal(t, 4, snap.Records[1]["credits"])
	assert.Equal(t, before, calls(), "cancel makes no gateway call")

	require.NoError(t, eng.RequestDelete("2"))
	eng.Cancel()
	snap = eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Empty(t, snap.PendingDelete)
	assert.Equal(t, before, calls())
}

func TestEngine_Delete(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Insert(courseSamples()...)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)

	require.NoError(t, eng.RequestDelete("1"))
	snap := eng.Snapshot()
	assert.Equal(t, crud.StateDeleteConfirm, snap.State)
	assert.Equal(t, "1", snap.PendingDelete)
	assert.Equal(t, 0, table.Calls(inmemdb.OpDelete), "no call before confirmation")

	require.NoError(t, eng.ConfirmDelete(ctx))
	snap = eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Len(t, snap.Records, 2)
	assert.Equal(t, 2, snap.Window.Total)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, &crud.Notice{Level: crud.NoticeSuccess, Text: "Course deleted successfully."}, eng.TakeNotice())

	assert.Equal(t, crud.ErrNoDelete, eng.ConfirmDelete(ctx))
}

func TestEngine_Delete_absentID(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Insert(courseSamples()...)
	eng, logger := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)

	for i := 0; i < 2; i++ {
		require.NoError(t, eng.RequestDelete("404"))
		require.NoError(t, eng.ConfirmDelete(ctx))
	}

	snap := eng.Snapshot()
	assert.Equal(t, crud.StateIdle, snap.State)
	assert.Len(t, snap.Records, 3)
	assert.Len(t, logger.Entries("error"), 2)
}

func TestEngine_Delete_fails(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Insert(courseSamples()...)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)
	table.Fail(inmemdb.OpDelete)

	require.NoError(t, eng.RequestDelete("3"))
	require.NoError(t, eng.ConfirmDelete(ctx))

	snap := eng.Snapshot()
	assert.Equal(t, crud.SourceFallback, snap.Source)
	assert.Len(t, snap.Records, 2)
	for _, r := range snap.Records {
		assert.NotEqual(t, "3", r.ID())
	}
	assert.Equal(t, 3, table.Len())
}

func TestEngine_Submit_defaults(t *testing.T) {
	table := inmemdb.Open().Table("student")
	ent := crud.Entity{
		Name:    "student",
		Plural:  "students",
		Gateway: table,
		Schema: crud.Schema{
			{Key: "first_name", Label: "First Name", Required: true},
			{Key: "email", Label: "Email"},
			{Key: "enrollment_date", Label: "Enrollment Date", Required: true, Kind: crud.KindDatetime},
		},
		Defaults: []crud.FieldDefault{
			{Key: "enrollment_date", Value: func(now time.Time) interface{} { return core.NowForInput(now) }},
		},
	}
	eng, _ := testutil.NewEngine(ent)
	ctx := context.Background()

	require.NoError(t, eng.OpenAdd())
	require.NoError(t, eng.SetFields(crud.Record{"first_name": "Rani", "enrollment_date": nil}))
	require.NoError(t, eng.Submit(ctx))

	res, err := table.List(ctx, crud.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "2024-03-05T09:30", res.Items[0]["enrollment_date"])
}

// blockingGateway holds List calls until released, to reorder responses.
type blockingGateway struct {
	crud.Gateway
	mu      sync.Mutex
	gates   []chan struct{}
	started chan struct{}
}

func (g *blockingGateway) List(ctx context.Context, page crud.Page) (crud.ListResult, error) {
	gate := make(chan struct{})
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	g.started <- struct{}{}
	<-gate
	return g.Gateway.List(ctx, page)
}

func (g *blockingGateway) release(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[i])
}

func TestEngine_staleListDiscarded(t *testing.T) {
	table := newTable(t, 25)
	gw := &blockingGateway{Gateway: table, started: make(chan struct{})}
	eng, _ := testutil.NewEngine(newCourseEntity(gw))
	ctx := context.Background()

	// settle the total so page 3 exists
	done := make(chan struct{})
	go func() { eng.Load(ctx); close(done) }()
	<-gw.started
	gw.release(0)
	<-done
	require.Equal(t, 25, eng.Snapshot().Window.Total)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); eng.SetPage(ctx, 2) }()
	<-gw.started
	go func() { defer wg.Done(); eng.SetPage(ctx, 3) }()
	<-gw.started

	gw.release(2) // newest answers first
	gw.release(1) // stale answer arrives last
	wg.Wait()

	snap := eng.Snapshot()
	assert.Equal(t, 3, snap.Window.Current)
	require.NotEmpty(t, snap.Records)
	assert.Equal(t, "Course 21", snap.Records[0].Get("name"), "stale page 2 response must be discarded")
	assert.Equal(t, crud.StateIdle, snap.State)
}

// Deleting the only row of the last page moves back to the new last page.
func TestEngine_Delete_lastRowOfLastPage(t *testing.T) {
	table := newTable(t, 21)
	eng, _ := testutil.NewEngine(newCourseEntity(table))
	ctx := context.Background()
	eng.Load(ctx)
	eng.SetPage(ctx, 3)

	snap := eng.Snapshot()
	require.Equal(t, 3, snap.Window.Current)
	require.Len(t, snap.Records, 1)

	require.NoError(t, eng.RequestDelete(snap.Records[0].ID()))
	require.NoError(t, eng.ConfirmDelete(ctx))

	snap = eng.Snapshot()
	assert.Equal(t, 2, snap.Window.Current)
	assert.Equal(t, 2, snap.Window.TotalPages())
	assert.Equal(t, 20, snap.Window.Total)
	assert.Len(t, snap.Records, 10)
	assert.Equal(t, "Course 11", snap.Records[0].Get("name"))
	assert.Equal(t, crud.SourceRemote, snap.Source)
	assert.Equal(t, crud.StateIdle, snap.State)
}

// A failed create applied while a list is in flight survives the list response.
func TestEngine_patchSupersedesInFlightList(t *testing.T) {
	table := inmemdb.Open().Table("course")
	table.Insert(courseSamples()...)
	table.Fail(inmemdb.OpCreate)
	gw := &blockingGateway{Gateway: table, started: make(chan struct{})}
	eng, _ := testutil.NewEngine(newCourseEntity(gw))
	ctx := context.Background()

	done := make(chan struct{})
	go func() { eng.Load(ctx); close(done) }()
	<-gw.started

	require.NoError(t, eng.OpenAdd())
	require.NoError(t, eng.SetFields(crud.Record{"name": "Physics"}))
	require.NoError(t, eng.Submit(ctx))

	gw.release(0)
	<-done

	snap := eng.Snapshot()
	assert.Equal(t, crud.SourceFallback, snap.Source)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Physics", snap.Records[0].Get("name"))
}
