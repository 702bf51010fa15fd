// Package airtable persists projects, analyses, follow-up items and team
// profiles in an Airtable base over its REST API.
package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
)

// ErrNotFound is returned when Airtable answers 404 for a record.
var ErrNotFound = errors.New("airtable: record not found")

// maxBatch is the record limit per create/update call imposed by the API.
const maxBatch = 10

// Tables names the Airtable tables backing each repository.
type Tables struct {
	Projects       string
	Analyses       string
	AdditionalInfo string
	TeamProfiles   string
}

// Options configures the client.
type Options struct {
	BaseURL string
	APIKey  string
	BaseID  string
	Timeout time.Duration
	Tables  Tables
}

// Client is a thin Airtable REST client. One HTTP call per request method.
type Client struct {
	http   fastshot.ClientHttpMethods
	baseID string
	tables Tables
}

// New builds a client for one Airtable base.
func New(opts Options) *Client {
	b := fastshot.NewClient(opts.BaseURL)
	if opts.APIKey != "" {
		b.Auth().BearerToken(opts.APIKey)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		http: b.Config().SetTimeout(opts.Timeout).
			Header().Add("Content-Type", "application/json").
			Build(),
		baseID: opts.BaseID,
		tables: opts.Tables,
	}
}

// Fields is the untyped cell map of one record.
type Fields map[string]any

type record struct {
	ID          string `json:"id,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      Fields `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

type writeRequest struct {
	Records  []record `json:"records"`
	Typecast bool     `json:"typecast"`
}

type listQuery struct {
	Formula  Formula
	Max      int
	SortBy   string
	SortDesc bool
}

// APIError carries a non-2xx Airtable response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.Status, e.Body)
}

func (c *Client) path(table string, id ...string) string {
	p := "/v0/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if len(id) > 0 && id[0] != "" {
		p += "/" + url.PathEscape(id[0])
	}
	return p
}

func (c *Client) list(ctx context.Context, table string, q listQuery) ([]record, error) {
	var out []record
	offset := ""
	for {
		req := c.http.GET(c.path(table)).Context().Set(ctx)
		if q.Formula != "" {
			req = req.Query().AddParam("filterByFormula", string(q.Formula))
		}
		if q.Max > 0 {
			req = req.Query().AddParam("maxRecords", strconv.Itoa(q.Max))
		}
		if q.SortBy != "" {
			dir := "asc"
			if q.SortDesc {
				dir = "desc"
			}
			req = req.Query().AddParam("sort[0][field]", q.SortBy).
				Query().AddParam("sort[0][direction]", dir)
		}
		if offset != "" {
			req = req.Query().AddParam("offset", offset)
		}

		resp, err := req.Send()
		if err != nil {
			return nil, fmt.Errorf("airtable list %s: %w", table, err)
		}
		var page listResponse
		err = parseResponse(resp, &page)
		if err != nil {
			return nil, fmt.Errorf("airtable list %s: %w", table, err)
		}
		out = append(out, page.Records...)

		if page.Offset == "" || (q.Max > 0 && len(out) >= q.Max) {
			break
		}
		offset = page.Offset
	}
	if q.Max > 0 && len(out) > q.Max {
		out = out[:q.Max]
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, table, id string) (*record, error) {
	resp, err := c.http.GET(c.path(table, id)).Context().Set(ctx).Send()
	if err != nil {
		return nil, fmt.Errorf("airtable get %s: %w", table, err)
	}
	var rec record
	if err := parseResponse(resp, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// create inserts rows in chunks of maxBatch and returns them with ids, in order.
func (c *Client) create(ctx context.Context, table string, rows []Fields) ([]record, error) {
	out := make([]record, 0, len(rows))
	for start := 0; start < len(rows); start += maxBatch {
		end := min(start+maxBatch, len(rows))
		body := writeRequest{Typecast: true}
		for _, f := range rows[start:end] {
			body.Records = append(body.Records, record{Fields: f})
		}

		resp, err := c.http.POST(c.path(table)).
			Context().Set(ctx).
			Body().AsJSON(body).
			Send()
		if err != nil {
			return out, fmt.Errorf("airtable create %s: %w", table, err)
		}
		var created listResponse
		if err := parseResponse(resp, &created); err != nil {
			return out, fmt.Errorf("airtable create %s: %w", table, err)
		}
		out = append(out, created.Records...)
	}
	return out, nil
}

func (c *Client) update(ctx context.Context, table, id string, fields Fields) (*record, error) {
	resp, err := c.http.PATCH(c.path(table, id)).
		Context().Set(ctx).
		Body().AsJSON(record{Fields: fields}).
		Send()
	if err != nil {
		return nil, fmt.Errorf("airtable update %s: %w", table, err)
	}
	var rec record
	if err := parseResponse(resp, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) delete(ctx context.Context, table, id string) error {
	resp, err := c.http.DELETE(c.path(table, id)).Context().Set(ctx).Send()
	if err != nil {
		return fmt.Errorf("airtable delete %s: %w", table, err)
	}
	var ignored struct {
		Deleted bool `json:"deleted"`
	}
	return parseResponse(resp, &ignored)
}

// Check lists a single project row. Used by the health endpoint.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.list(ctx, c.tables.Projects, listQuery{Max: 1})
	return err
}

func parseResponse[T any](resp *fastshot.Response, result *T) error {
	defer resp.Body().Close()

	if resp.Status().IsError() {
		msg, err := resp.Body().AsString()
		if err != nil {
			return fmt.Errorf("failed to read error response: %w", err)
		}
		code := resp.Status().Code()
		if code == 404 {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return &APIError{Status: code, Body: msg}
	}

	if err := resp.Body().AsJSON(result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
