package supabase

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/account"
	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
)

// totalCountKey is the window column RPC list functions may return with every row.
const totalCountKey = "total_count"

// TableGateway maps the CRUD verbs onto plain table operations.
type TableGateway struct {
	client *Client
	table  string
	schema crud.Schema
}

var _ crud.Gateway = (*TableGateway)(nil)

func NewTableGateway(client *Client, table string, schema crud.Schema) *TableGateway {
	return &TableGateway{client: client, table: table, schema: schema}
}

func (gw *TableGateway) List(ctx context.Context, page crud.Page) (crud.ListResult, error) {
	from, to := page.Range()
	recs, total, err := gw.client.Select(ctx, gw.table, from, to)
	if err != nil {
		return crud.ListResult{}, err
	}
	return crud.ListResult{Items: recs, Total: total}, nil
}

func (gw *TableGateway) Create(ctx context.Context, draft crud.Record) (crud.Record, error) {
	return gw.client.Insert(ctx, gw.table, crud.Payload(gw.schema, draft))
}

func (gw *TableGateway) Update(ctx context.Context, id string, draft crud.Record) error {
	return gw.client.Update(ctx, gw.table, id, crud.Payload(gw.schema, draft))
}

func (gw *TableGateway) Delete(ctx context.Context, id string) error {
	return gw.client.Delete(ctx, gw.table, id)
}

// RPCNames are the stored functions backing one entity.
type RPCNames struct {
	List   string // params: page_number, items_per_page
	Add    string // params: p_<field>
	Edit   string // params: p_id, p_<field>
	Delete string // params: p_id
}

// NamesFor returns the load_/add_/edit_/delete_ function names of entity.
func NamesFor(listSuffix, entity string) RPCNames {
	return RPCNames{
		List:   "load_" + listSuffix,
		Add:    "add_" + entity,
		Edit:   "edit_" + entity,
		Delete: "delete_" + entity,
	}
}

// RPCGateway maps the CRUD verbs onto stored functions.
//
// The total count comes from a total_count column of the list rows when present,
// otherwise from an exact count of CountTable.
type RPCGateway struct {
	client     *Client
	entity     string
	names      RPCNames
	schema     crud.Schema
	CountTable string
}

var _ crud.Gateway = (*RPCGateway)(nil)

func NewRPCGateway(client *Client, entity string, names RPCNames, schema crud.Schema, countTable string) *RPCGateway {
	return &RPCGateway{client: client, entity: entity, names: names, schema: schema, CountTable: countTable}
}

func (gw *RPCGateway) params(draft crud.Record) map[string]interface{} {
	payload := crud.Payload(gw.schema, draft)
	params := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		params["p_"+k] = v
	}
	return params
}

func (gw *RPCGateway) List(ctx context.Context, page crud.Page) (crud.ListResult, error) {
	recs, err := gw.client.RPC(ctx, gw.names.List, map[string]interface{}{
		"page_number":    page.Number,
		"items_per_page": page.Size,
	})
	if err != nil {
		return crud.ListResult{}, err
	}

	total := -1
	for _, r := range recs {
		if v, ok := r[totalCountKey]; ok {
			if n, ok := v.(float64); ok {
				total = int(n)
			}
			delete(r, totalCountKey)
		}
	}
	if total < 0 {
		if gw.CountTable == "" {
			return crud.ListResult{}, core.NewTransportError("list", gw.entity, errors.New("no total count available"))
		}
		if total, err = gw.client.Count(ctx, gw.CountTable); err != nil {
			return crud.ListResult{}, err
		}
	}
	return crud.ListResult{Items: recs, Total: total}, nil
}

func (gw *RPCGateway) Create(ctx context.Context, draft crud.Record) (crud.Record, error) {
	recs, err := gw.client.RPC(ctx, gw.names.Add, gw.params(draft))
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		return recs[0], nil
	}
	return crud.Payload(gw.schema, draft), nil
}

func (gw *RPCGateway) Update(ctx context.Context, id string, draft crud.Record) error {
	params := gw.params(draft)
	params["p_id"] = id
	_, err := gw.client.RPC(ctx, gw.names.Edit, params)
	return err
}

func (gw *RPCGateway) Delete(ctx context.Context, id string) error {
	_, err := gw.client.RPC(ctx, gw.names.Delete, map[string]interface{}{"p_id": id})
	return err
}

// Departments implements school.DepartmentLister.
func (c *Client) Departments(ctx context.Context) ([]school.Department, error) {
	recs, _, err := c.Select(ctx, "department", 0, 999)
	if err != nil {
		return nil, err
	}
	deps := make([]school.Department, 0, len(recs))
	for _, r := range recs {
		deps = append(deps, school.Department{ID: r.ID(), Name: r.Get("name")})
	}
	return deps, nil
}

var _ school.DepartmentLister = (*Client)(nil)

// NewGateways builds the school gateways: courses use the course table, the others
// their stored functions.
func NewGateways(client *Client) school.Gateways {
	opts := school.Options{}
	return school.Gateways{
		Courses: NewTableGateway(client, "course", school.Course(nil, opts).Schema),
		Students: NewRPCGateway(client, "student", NamesFor("students", "student"),
			school.Student(nil, opts).Schema, "student"),
		Teachers: NewRPCGateway(client, "teacher", NamesFor("teachers", "teacher"),
			school.Teacher(nil, opts).Schema, "teacher"),
		Staff: NewRPCGateway(client, "staff", NamesFor("staff", "staff"),
			school.StaffMember(nil, opts).Schema, "staff"),
	}
}

// AuthService signs dashboard users in with their hosted-auth credentials.
type AuthService struct {
	client *Client
}

var _ account.Authenticator = (*AuthService)(nil)

func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

func (a *AuthService) Authenticate(ctx context.Context, creds account.Credentials) (account.Account, error) {
	sess, err := a.client.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		var te *core.TransportError
		if errors.As(err, &te) && te.Status >= 400 && te.Status < 500 {
			return account.Account{}, account.ErrInvalidCredentials
		}
		return account.Account{}, err
	}
	email := sess.User.Email
	if email == "" {
		email = creds.Email
	}
	return account.Account{
		Email:     strings.ToLower(email),
		Name:      email,
		LastLogin: account.NowFunc().UTC(),
	}, nil
}
