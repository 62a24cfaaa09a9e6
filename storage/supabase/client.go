// Package supabase talks to the school's PostgREST API and realtime server.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

// noRowsCode is the PostgREST error code of a single-object request that matched no row.
const noRowsCode = "PGRST116"

var errNotConfigured = errors.New("supabase url and api key are required")

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(conf *core.Config, httpClient *http.Client) (*Client, error) {
	if conf.Supabase.URL == "" || conf.Supabase.APIKey == "" {
		return nil, errNotConfigured
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(conf.Supabase.URL, "/"),
		apiKey:     conf.Supabase.APIKey,
		httpClient: httpClient,
	}, nil
}

// From starts a query on table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{client: c, table: table, params: make(url.Values)}
}

// RPC calls a stored procedure and decodes its result into v (unless v is nil).
func (c *Client) RPC(ctx context.Context, fn string, args interface{}, v interface{}) error {
	body, err := json.Marshal(args)
	if err != nil {
		return errors.Wrap(err, "encoding rpc args")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+fn, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request, v interface{}) error {
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return newError(resp.StatusCode, body)
	}
	if v == nil || len(body) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(body, v), "decoding response")
}

// Error is a failed PostgREST response.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func newError(status int, body []byte) error {
	e := &Error{Status: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Code == noRowsCode {
		return errors.Wrap(core.ErrNotFound, e.Error())
	}
	return e
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s)", msg, e.Code)
	}
	return "supabase: " + msg
}

// QueryBuilder builds one PostgREST request. Filters use the PostgREST operators.
type QueryBuilder struct {
	client     *Client
	table      string
	params     url.Values
	single     bool
	onConflict string
}

func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.params.Set("select", compact(columns))
	return q
}

func (q *QueryBuilder) filter(column, op string, value interface{}) *QueryBuilder {
	q.params.Add(column, fmt.Sprintf("%s.%v", op, value))
	return q
}

func (q *QueryBuilder) Eq(column string, value interface{}) *QueryBuilder {
	return q.filter(column, "eq", value)
}

func (q *QueryBuilder) Gte(column string, value interface{}) *QueryBuilder {
	return q.filter(column, "gte", value)
}

func (q *QueryBuilder) Lte(column string, value interface{}) *QueryBuilder {
	return q.filter(column, "lte", value)
}

// Or adds a disjunction of PostgREST conditions, e.g. `and(a.eq.1,b.eq.2),c.eq.3`.
func (q *QueryBuilder) Or(conditions string) *QueryBuilder {
	q.params.Add("or", "("+conditions+")")
	return q
}

func (q *QueryBuilder) Order(column string, ascending bool) *QueryBuilder {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	if prev := q.params.Get("order"); prev != "" {
		q.params.Set("order", prev+","+column+"."+dir)
	} else {
		q.params.Set("order", column+"."+dir)
	}
	return q
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Single expects exactly one row; none is reported as core.ErrNotFound.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	return q
}

// OnConflict turns the next Insert into an upsert on the given columns.
func (q *QueryBuilder) OnConflict(columns string) *QueryBuilder {
	q.onConflict = columns
	return q
}

func (q *QueryBuilder) url() string {
	u := q.client.baseURL + "/rest/v1/" + q.table
	if len(q.params) > 0 {
		u += "?" + q.params.Encode()
	}
	return u
}

func (q *QueryBuilder) request(ctx context.Context, method string, data interface{}) (*http.Request, error) {
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "encoding body")
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.url(), body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return req, nil
}

// Execute runs a SELECT and decodes the rows into v.
func (q *QueryBuilder) Execute(ctx context.Context, v interface{}) error {
	req, err := q.request(ctx, http.MethodGet, nil)
	if err != nil {
		return err
	}
	return q.client.do(req, v)
}

// Insert posts data and decodes the stored representation into v.
func (q *QueryBuilder) Insert(ctx context.Context, data, v interface{}) error {
	if q.onConflict != "" {
		q.params.Set("on_conflict", q.onConflict)
	}
	req, err := q.request(ctx, http.MethodPost, data)
	if err != nil {
		return err
	}
	prefer := "return=representation"
	if q.onConflict != "" {
		prefer = "resolution=merge-duplicates," + prefer
	}
	req.Header.Set("Prefer", prefer)
	return q.client.do(req, v)
}

// Update patches the filtered rows. A nil v asks for no representation back.
func (q *QueryBuilder) Update(ctx context.Context, data, v interface{}) error {
	req, err := q.request(ctx, http.MethodPatch, data)
	if err != nil {
		return err
	}
	if v != nil {
		req.Header.Set("Prefer", "return=representation")
	} else {
		req.Header.Set("Prefer", "return=minimal")
	}
	return q.client.do(req, v)
}

// compact drops the whitespace of a multi-line select list.
func compact(columns string) string {
	return strings.Join(strings.Fields(columns), "")
}
