package database

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
)

var ErrNoRows = errors.New("no such row")

const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Table describes how one entity is stored.
type Table struct {
	Name     string
	Columns  []string        // writable columns besides id and created_at
	From     string          // FROM clause of listings; defaults to Name
	Select   string          // select list of listings; defaults to *
	Ordering core.DBOrdering // defaults to created_at ASC
}

// TableGateway implements crud.Gateway over one SQL table.
type TableGateway struct {
	db    *sqlx.DB
	table Table
	now   func() time.Time
}

var _ crud.Gateway = (*TableGateway)(nil)

func NewTableGateway(db *sqlx.DB, table Table) *TableGateway {
	if table.From == "" {
		table.From = table.Name
	}
	if table.Select == "" {
		table.Select = "*"
	}
	if table.Ordering.Field == "" {
		table.Ordering = core.DBOrdering{Field: "created_at", Ascending: true}
	}
	return &TableGateway{db: db, table: table, now: time.Now}
}

func (gw *TableGateway) fail(op string, err error) error {
	return core.NewTransportError(op, gw.table.Name, err)
}

// writable returns the whitelisted keys of rec, sorted.
func (gw *TableGateway) writable(rec crud.Record) []string {
	keys := make([]string, 0, len(rec))
	for _, col := range gw.table.Columns {
		if _, ok := rec[col]; ok {
			keys = append(keys, col)
		}
	}
	sort.Strings(keys)
	return keys
}

func (gw *TableGateway) List(ctx context.Context, page crud.Page) (crud.ListResult, error) {
	var total int
	if err := gw.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+gw.table.Name); err != nil {
		return crud.ListResult{}, gw.fail("list", errors.Wrap(err, "counting rows"))
	}

	q := "SELECT " + gw.table.Select + " FROM " + gw.table.From +
		" ORDER BY " + gw.table.Ordering.String() + " LIMIT ? OFFSET ?"
	rows, err := gw.db.QueryxContext(ctx, gw.db.Rebind(q), page.Size, page.Offset())
	if err != nil {
		return crud.ListResult{}, gw.fail("list", errors.Wrap(err, "selecting rows"))
	}
	defer func() { _ = rows.Close() }()

	items := make([]crud.Record, 0, page.Size)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return crud.ListResult{}, gw.fail("list", errors.Wrap(err, "scanning row"))
		}
		items = append(items, normalize(row))
	}
	if err := rows.Err(); err != nil {
		return crud.ListResult{}, gw.fail("list", errors.Wrap(err, "iterating rows"))
	}
	return crud.ListResult{Items: items, Total: total}, nil
}

func (gw *TableGateway) Create(ctx context.Context, draft crud.Record) (crud.Record, error) {
	keys := gw.writable(draft)
	rec := make(crud.Record, len(keys)+2)
	rec[crud.IDKey] = uuid.NewString()
	rec["created_at"] = gw.now().UTC().Format(createdAtLayout)

	cols := append([]string{crud.IDKey, "created_at"}, keys...)
	args := make([]interface{}, 0, len(cols))
	args = append(args, rec[crud.IDKey], rec["created_at"])
	for _, k := range keys {
		rec[k] = draft[k]
		args = append(args, draft[k])
	}

	q := "INSERT INTO " + gw.table.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	if _, err := gw.db.ExecContext(ctx, gw.db.Rebind(q), args...); err != nil {
		return nil, gw.fail("create", errors.Wrap(err, "inserting row"))
	}
	return rec, nil
}

func (gw *TableGateway) Update(ctx context.Context, id string, draft crud.Record) error {
	keys := gw.writable(draft)
	if len(keys) == 0 {
		return nil
	}
	sets := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		sets = append(sets, k+" = ?")
		args = append(args, draft[k])
	}
	args = append(args, id)

	q := "UPDATE " + gw.table.Name + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := gw.db.ExecContext(ctx, gw.db.Rebind(q), args...)
	if err != nil {
		return gw.fail("update", errors.Wrap(err, "updating row"))
	}
	return gw.trapNoRows("update", res)
}

func (gw *TableGateway) Delete(ctx context.Context, id string) error {
	res, err := gw.db.ExecContext(ctx, gw.db.Rebind("DELETE FROM "+gw.table.Name+" WHERE id = ?"), id)
	if err != nil {
		return gw.fail("delete", errors.Wrap(err, "deleting row"))
	}
	return gw.trapNoRows("delete", res)
}

func (gw *TableGateway) trapNoRows(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return gw.fail(op, err)
	}
	if n == 0 {
		return gw.fail(op, ErrNoRows)
	}
	return nil
}

// normalize turns driver values into the scalars records carry.
func normalize(row map[string]interface{}) crud.Record {
	rec := make(crud.Record, len(row))
	for k, v := range row {
		switch val := v.(type) {
		case []byte:
			rec[k] = string(val)
		case time.Time:
			rec[k] = val.UTC().Format(time.RFC3339)
		default:
			rec[k] = val
		}
	}
	return rec
}

// Tables of the school entities.
var (
	CourseTable = Table{
		Name:    "course",
		Columns: []string{"name", "description", "credits"},
	}
	StudentTable = Table{
		Name:    "student",
		Columns: []string{"first_name", "last_name", "email", "enrollment_date", "class"},
	}
	TeacherTable = Table{
		Name:    "teacher",
		Columns: []string{"first_name", "last_name", "email", "department"},
	}
	StaffTable = Table{
		Name:     "staff",
		Columns:  []string{"first_name", "last_name", "email", "role", "department_id"},
		From:     "staff s LEFT JOIN department d ON d.id = s.department_id",
		Select:   "s.id, s.first_name, s.last_name, s.email, s.role, s.department_id, d.name AS department, s.created_at",
		Ordering: core.DBOrdering{Field: "s.created_at", Ascending: true},
	}
)

func NewGateways(db *sqlx.DB) school.Gateways {
	return school.Gateways{
		Courses:  NewTableGateway(db, CourseTable),
		Students: NewTableGateway(db, StudentTable),
		Teachers: NewTableGateway(db, TeacherTable),
		Staff:    NewTableGateway(db, StaffTable),
	}
}

// DepartmentRepository lists and seeds departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

var _ school.DepartmentLister = (*DepartmentRepository)(nil)

func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (repo *DepartmentRepository) Departments(ctx context.Context) ([]school.Department, error) {
	deps := make([]school.Department, 0)
	if err := repo.db.SelectContext(ctx, &deps, "SELECT id, name FROM department ORDER BY name"); err != nil {
		return nil, core.NewTransportError("list", "department", err)
	}
	return deps, nil
}

// Seed inserts deps, skipping the ones already present.
func (repo *DepartmentRepository) Seed(ctx context.Context, deps ...school.Department) error {
	for _, d := range deps {
		q := repo.db.Rebind("INSERT INTO department (id, name) VALUES (?, ?) ON CONFLICT DO NOTHING")
		if _, err := repo.db.ExecContext(ctx, q, d.ID, d.Name); err != nil {
			return errors.Wrapf(err, "seeding department %q", d.Name)
		}
	}
	return nil
}
