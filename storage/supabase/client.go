// Package supabase talks to a hosted Postgres through its PostgREST and auth HTTP APIs.
package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
)

const (
	restPath = "/rest/v1/"
	authPath = "/auth/v1/"
)

var ErrBadContentRange = errors.New("missing or malformed Content-Range")

// Client is a thin PostgREST client. It keeps no state besides its settings.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

func NewClient(conf core.SupabaseConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.URL, "/"),
		key:     conf.AnonKey,
		http:    &http.Client{Timeout: conf.Timeout},
	}
}

// apiError is the error body of PostgREST and of the auth API.
type apiError struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Hint             string `json:"hint"`
	Code             string `json:"code"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.Code} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) newRequest(method rest.Method, path string, query map[string]string, body interface{}) (rest.Request, error) {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		QueryParams: query,
		Headers: map[string]string{
			"apikey":        c.key,
			"Authorization": "Bearer " + c.key,
			"Accept":        "application/json",
		},
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return req, errors.Wrap(err, "encoding body")
		}
		req.Body = b
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

// send runs req. Transport failures and non-2xx statuses become *core.TransportError;
// the response of a non-2xx status is returned along with the error.
func (c *Client) send(ctx context.Context, op, entity string, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, core.NewTransportError(op, entity, errors.Wrap(err, "building request"))
	}
	httpRes, err := c.http.Do(httpReq.WithContext(ctx))
	if err != nil {
		return nil, core.NewTransportError(op, entity, err)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return nil, core.NewTransportError(op, entity, errors.Wrap(err, "reading response"))
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var apiErr apiError
		msg := http.StatusText(res.StatusCode)
		if json.Unmarshal([]byte(res.Body), &apiErr) == nil && apiErr.text() != "" {
			msg = apiErr.text()
		}
		return res, &core.TransportError{Op: op, Entity: entity, Status: res.StatusCode, Err: errors.New(msg)}
	}
	return res, nil
}

// decodeRecords reads the rows of a 2xx body. Scalar results (an id, true, null) carry no rows.
func decodeRecords(op, entity, body string) ([]crud.Record, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return []crud.Record{}, nil
	}
	switch trimmed[0] {
	case '[':
		var recs []crud.Record
		if err := json.Unmarshal([]byte(trimmed), &recs); err != nil {
			return nil, core.NewTransportError(op, entity, errors.Wrap(err, "decoding rows"))
		}
		return recs, nil
	case '{':
		var one crud.Record
		if err := json.Unmarshal([]byte(trimmed), &one); err != nil {
			return nil, core.NewTransportError(op, entity, errors.Wrap(err, "decoding row"))
		}
		return []crud.Record{one}, nil
	default:
		return []crud.Record{}, nil
	}
}

// RPC calls the stored function fn and returns its rows, if any.
func (c *Client) RPC(ctx context.Context, fn string, params map[string]interface{}) ([]crud.Record, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	req, err := c.newRequest(rest.Post, restPath+"rpc/"+fn, nil, params)
	if err != nil {
		return nil, core.NewTransportError("rpc", fn, err)
	}
	res, err := c.send(ctx, "rpc", fn, req)
	if err != nil {
		return nil, err
	}
	return decodeRecords("rpc", fn, res.Body)
}

// Select returns the rows [from, to] of table and the exact row count.
func (c *Client) Select(ctx context.Context, table string, from, to int) ([]crud.Record, int, error) {
	req, err := c.newRequest(rest.Get, restPath+table, map[string]string{"select": "*", "order": "id.asc"}, nil)
	if err != nil {
		return nil, 0, core.NewTransportError("list", table, err)
	}
	req.Headers["Range-Unit"] = "items"
	req.Headers["Range"] = strconv.Itoa(from) + "-" + strconv.Itoa(to)
	req.Headers["Prefer"] = "count=exact"

	res, err := c.send(ctx, "list", table, req)
	if err != nil {
		// a range past the last row is answered with 416 and "*/<total>"
		var te *core.TransportError
		if errors.As(err, &te) && te.Status == http.StatusRequestedRangeNotSatisfiable && res != nil {
			if total, rerr := contentRangeTotal(res.Headers); rerr == nil {
				return []crud.Record{}, total, nil
			}
		}
		return nil, 0, err
	}
	recs, err := decodeRecords("list", table, res.Body)
	if err != nil {
		return nil, 0, err
	}
	total, err := contentRangeTotal(res.Headers)
	if err != nil {
		return nil, 0, core.NewTransportError("list", table, err)
	}
	return recs, total, nil
}

// Count returns the exact number of rows of table.
func (c *Client) Count(ctx context.Context, table string) (int, error) {
	req, err := c.newRequest(rest.Method(http.MethodHead), restPath+table, map[string]string{"select": "*"}, nil)
	if err != nil {
		return 0, core.NewTransportError("count", table, err)
	}
	req.Headers["Prefer"] = "count=exact"

	res, err := c.send(ctx, "count", table, req)
	if err != nil {
		return 0, err
	}
	total, err := contentRangeTotal(res.Headers)
	if err != nil {
		return 0, core.NewTransportError("count", table, err)
	}
	return total, nil
}

// Insert inserts rec into table and returns the stored row.
func (c *Client) Insert(ctx context.Context, table string, rec crud.Record) (crud.Record, error) {
	req, err := c.newRequest(rest.Post, restPath+table, map[string]string{"select": "*"}, []crud.Record{rec})
	if err != nil {
		return nil, core.NewTransportError("create", table, err)
	}
	req.Headers["Prefer"] = "return=representation"

	res, err := c.send(ctx, "create", table, req)
	if err != nil {
		return nil, err
	}
	recs, err := decodeRecords("create", table, res.Body)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return rec.Clone(), nil
	}
	return recs[0], nil
}

// Update patches the row id of table.
func (c *Client) Update(ctx context.Context, table, id string, rec crud.Record) error {
	req, err := c.newRequest(rest.Patch, restPath+table, map[string]string{"id": "eq." + id}, rec)
	if err != nil {
		return core.NewTransportError("update", table, err)
	}
	req.Headers["Prefer"] = "return=minimal"
	_, err = c.send(ctx, "update", table, req)
	return err
}

// Delete removes the row id of table. Deleting a missing row is not an error.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	req, err := c.newRequest(rest.Delete, restPath+table, map[string]string{"id": "eq." + id}, nil)
	if err != nil {
		return core.NewTransportError("delete", table, err)
	}
	req.Headers["Prefer"] = "return=minimal"
	_, err = c.send(ctx, "delete", table, req)
	return err
}

// Session is the result of a password sign in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	req, err := c.newRequest(rest.Post, authPath+"token", map[string]string{"grant_type": "password"}, body)
	if err != nil {
		return Session{}, core.NewTransportError("auth", "", err)
	}
	res, err := c.send(ctx, "auth", "", req)
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(res.Body), &sess); err != nil {
		return Session{}, core.NewTransportError("auth", "", errors.Wrap(err, "decoding session"))
	}
	return sess, nil
}

// contentRangeTotal reads the total of a "0-9/25" or "*/0" Content-Range header.
func contentRangeTotal(headers map[string][]string) (int, error) {
	var value string
	for k, vs := range headers {
		if strings.EqualFold(k, "Content-Range") && len(vs) > 0 {
			value = vs[0]
		}
	}
	i := strings.LastIndex(value, "/")
	if i < 0 || value[i+1:] == "*" {
		return 0, ErrBadContentRange
	}
	total, err := strconv.Atoi(value[i+1:])
	if err != nil {
		return 0, errors.Wrap(ErrBadContentRange, value)
	}
	return total, nil
}
