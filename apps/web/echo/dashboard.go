package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
)

const (
	contextSlugKey   = "entity"
	contextEngineKey = "engine"
)

type (
	entityLink struct {
		Slug  string
		Title string
	}

	sidebarView struct {
		Active string
		Links  []entityLink
	}

	dashboardView struct {
		Sidebar sidebarView
	}

	rowView struct {
		ID    string
		Cells []string
	}

	optionView struct {
		Value    string
		Label    string
		Selected bool
	}

	fieldView struct {
		Key      string
		Label    string
		Type     string
		Value    string
		Required bool
		Error    string
		Options  []optionView
	}

	dialogView struct {
		Title  string
		Fields []fieldView
	}

	deleteView struct {
		ID string
	}

	entityView struct {
		Slug     string
		Name     string
		Plural   string
		Title    string
		AddTitle string
		Sidebar  sidebarView

		Notice      *crud.Notice
		LoadingText string
		Fallback    bool

		Columns []string
		Rows    []rowView

		Page     int
		Pages    int
		HasPrev  bool
		HasNext  bool
		PrevPage int
		NextPage int

		Dialog *dialogView
		Delete *deleteView
	}
)

type dashboardApi struct {
	server      *Server
	sessions    *Sessions
	departments school.DepartmentLister
	logger      core.Logger
}

func registerDashboard(g *echo.Group, s *Server) {
	api := dashboardApi{
		server:      s,
		sessions:    s.deps.Sessions,
		departments: s.deps.Departments,
		logger:      s.deps.Logger,
	}

	g.GET("", api.overview)

	eg := g.Group("/:entity", api.engineMiddleware)
	eg.GET("", api.list)
	eg.GET("/new", api.openAdd)
	eg.GET("/:id/edit", api.openEdit)
	eg.POST("/save", api.save)
	eg.POST("/cancel", api.cancel)
	eg.GET("/:id/delete", api.requestDelete)
	eg.POST("/delete/confirm", api.confirmDelete)
}

func (api *dashboardApi) sidebar(active string) sidebarView {
	sb := sidebarView{Active: active}
	for _, slug := range school.Slugs {
		if ent, ok := api.sessions.Entity(slug); ok {
			sb.Links = append(sb.Links, entityLink{Slug: slug, Title: ent.Title})
		}
	}
	return sb
}

// engineMiddleware locks the session and puts the engine of the :entity param in the context.
func (api *dashboardApi) engineMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, ok := contextClaims(ctx)
		if !ok {
			return echo.ErrUnauthorized
		}
		slug := ctx.Param("entity")
		if _, ok := api.sessions.Entity(slug); !ok {
			return errHttpNotFound
		}

		sess := api.sessions.Get(claims.ID)
		sess.Lock()
		defer sess.Unlock()

		eng, _ := sess.Engine(ctx.Request().Context(), slug)
		ctx.Set(contextSlugKey, slug)
		ctx.Set(contextEngineKey, eng)
		return next(ctx)
	}
}

func contextEngine(ctx echo.Context) (string, *crud.Engine) {
	slug, _ := ctx.Get(contextSlugKey).(string)
	eng, _ := ctx.Get(contextEngineKey).(*crud.Engine)
	return slug, eng
}

func (api *dashboardApi) redirectToList(ctx echo.Context) error {
	slug, _ := contextEngine(ctx)
	return ctx.Redirect(http.StatusSeeOther, dashboardPath+"/"+slug)
}

// Handlers

func (api *dashboardApi) overview(ctx echo.Context) error {
	return api.server.render(ctx, http.StatusOK, "dashboard", "Dashboard", dashboardView{Sidebar: api.sidebar("")})
}

func (api *dashboardApi) list(ctx echo.Context) error {
	_, eng := contextEngine(ctx)

	var pq PageQuery
	if err := pq.Bind(ctx); err != nil {
		return err
	}
	if pq.Set {
		eng.SetPage(ctx.Request().Context(), pq.Page)
	}
	return api.renderEntity(ctx, http.StatusOK)
}

func (api *dashboardApi) openAdd(ctx echo.Context) error {
	_, eng := contextEngine(ctx)
	if err := eng.OpenAdd(); err != nil {
		return errors.Wrap(err, "opening add dialog")
	}
	return api.redirectToList(ctx)
}

func (api *dashboardApi) openEdit(ctx echo.Context) error {
	_, eng := contextEngine(ctx)
	if err := eng.OpenEdit(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "opening edit dialog")
	}
	return api.redirectToList(ctx)
}

func (api *dashboardApi) save(ctx echo.Context) error {
	_, eng := contextEngine(ctx)

	draft, err := BindDraft(ctx, eng.Entity().Schema)
	if err != nil {
		return err
	}
	if err = eng.SetFields(draft); err != nil {
		return errors.Wrap(err, "setting draft fields")
	}
	if err = eng.Submit(ctx.Request().Context()); err != nil {
		if _, ok := api.server.fieldErrors(err); ok {
			return api.renderEntity(ctx, http.StatusBadRequest)
		}
		return errors.Wrap(err, "submitting draft")
	}
	return api.redirectToList(ctx)
}

func (api *dashboardApi) cancel(ctx echo.Context) error {
	_, eng := contextEngine(ctx)
	eng.Cancel()
	return api.redirectToList(ctx)
}

func (api *dashboardApi) requestDelete(ctx echo.Context) error {
	_, eng := contextEngine(ctx)
	if err := eng.RequestDelete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "requesting delete")
	}
	return api.redirectToList(ctx)
}

func (api *dashboardApi) confirmDelete(ctx echo.Context) error {
	_, eng := contextEngine(ctx)
	if err := eng.ConfirmDelete(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "confirming delete")
	}
	return api.redirectToList(ctx)
}

func (api *dashboardApi) renderEntity(ctx echo.Context, code int) error {
	slug, eng := contextEngine(ctx)
	ent := eng.Entity()
	snap := eng.Snapshot()
	win := snap.Window

	data := entityView{
		Slug:        slug,
		Name:        ent.Name,
		Plural:      ent.Plural,
		Title:       ent.Title,
		AddTitle:    ent.AddTitle(),
		Sidebar:     api.sidebar(slug),
		Notice:      eng.TakeNotice(),
		LoadingText: snap.LoadingText,
		Fallback:    snap.Source == crud.SourceFallback,
		Page:        win.Current,
		Pages:       win.TotalPages(),
		HasPrev:     win.HasPrev(),
		HasNext:     win.HasNext(),
		PrevPage:    win.Current - 1,
		NextPage:    win.Current + 1,
	}

	grid := ent.Schema.Grid()
	for _, col := range grid {
		data.Columns = append(data.Columns, col.Label)
	}
	for _, rec := range snap.Records {
		row := rowView{ID: rec.ID(), Cells: make([]string, 0, len(grid))}
		for _, col := range grid {
			row.Cells = append(row.Cells, col.Display(rec))
		}
		data.Rows = append(data.Rows, row)
	}

	switch snap.State {
	case crud.StateDialogOpen:
		title := ent.AddTitle()
		if snap.Dialog == crud.DialogEdit {
			title = ent.EditTitle()
		}
		fields, err := api.fields(ctx, ent.Schema, snap)
		if err != nil {
			return err
		}
		data.Dialog = &dialogView{Title: title, Fields: fields}
	case crud.StateDeleteConfirm:
		data.Delete = &deleteView{ID: snap.PendingDelete}
	}

	return api.server.render(ctx, code, "entity", ent.Title, data)
}

func (api *dashboardApi) fields(ctx echo.Context, schema crud.Schema, snap crud.Snapshot) ([]fieldView, error) {
	form := schema.Form()
	fields := make([]fieldView, 0, len(form))
	for _, col := range form {
		fld := fieldView{
			Key:      col.Key,
			Label:    col.Label,
			Type:     col.Kind.InputType(),
			Value:    col.InputValue(snap.Draft),
			Required: col.Required,
			Error:    snap.Errors[col.Key],
		}
		if col.Lookup != "" {
			opts, err := api.options(ctx, col.Lookup)
			if err != nil {
				return nil, err
			}
			for _, o := range opts {
				o.Selected = o.Value == fld.Value
				fld.Options = append(fld.Options, o)
			}
		}
		fields = append(fields, fld)
	}
	return fields, nil
}

// options lists the choices of a lookup input. Unreachable departments fall back to the samples.
func (api *dashboardApi) options(ctx echo.Context, lookup string) ([]optionView, error) {
	switch lookup {
	case school.LookupDepartments:
		deps, err := api.departments.Departments(ctx.Request().Context())
		if err != nil {
			api.logger.Warn("listing departments: "+err.Error(), err)
			deps = school.SampleDepartments()
		}
		opts := make([]optionView, 0, len(deps))
		for _, d := range deps {
			opts = append(opts, optionView{Value: d.ID, Label: d.Name})
		}
		return opts, nil
	}
	return nil, errors.Errorf("unknown lookup %q", lookup)
}

// PageQuery binds the optional ?page=n parameter.
type PageQuery struct {
	Page int
	Set  bool
}

func (pq *PageQuery) Bind(ctx echo.Context) error {
	val := ctx.QueryParam("page")
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page must be a number")
	}
	pq.Page, pq.Set = n, true
	return nil
}
