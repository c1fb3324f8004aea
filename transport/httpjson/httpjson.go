// Package httpjson is the HTTP/JSON reference transport for viewcache.
// Any transport can be substituted; this one speaks the default wire shapes:
//
//	GET  <list path>?workspaceId&limit[&before&beforeId]
//	  -> {"items": [...], "nextCursor": {"before", "beforeId"} | null}
//	PATCH <entity path>/{id} with {"<field>": <value>}
//	GET  <config path>?<params> -> any small JSON payload
//
// The list endpoint must return items strictly ordered by
// (createdAt DESC, id DESC), starting strictly after the cursor when one is
// given; the paginator's page-contiguity guarantee rests on that order.
package httpjson

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

	"github.com/unkn0wn-root/viewcache"
)

type Config struct {
	// Required, e.g. "https://api.example.com".
	BaseURL string
	// Optional; defaults to a client with a 15s timeout. Timeouts surface
	// as ordinary transient errors upstream.
	HTTPClient *http.Client
	// Optional extra headers (auth tokens etc.) sent on every request.
	Headers map[string]string
	// Path prefix for mutations; "" => "/entities".
	EntityPath string
}

type Client struct {
	base       *url.URL
	hc         *http.Client
	headers    map[string]string
	entityPath string
}

var _ viewcache.Applier = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpjson: base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpjson: invalid base url: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	ep := cfg.EntityPath
	if ep == "" {
		ep = "/entities"
	}
	return &Client{base: base, hc: hc, headers: cfg.Headers, entityPath: ep}, nil
}

// Apply implements viewcache.Applier with a PATCH of {"<field>": <value>}.
// 404 maps to *viewcache.NotFoundError, other 4xx to
// *viewcache.ValidationError carrying the server-provided message; anything
// else is transient.
func (c *Client) Apply(ctx context.Context, id, field string, value any) error {
	body, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return err
	}
	u := c.resolve(c.entityPath+"/"+url.PathEscape(id), nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return &viewcache.NotFoundError{ID: id}
	}
	msg := readErrorMessage(resp.Body)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &viewcache.ValidationError{StatusCode: resp.StatusCode, Message: msg}
	}
	return fmt.Errorf("httpjson: PATCH %s: status %d", c.entityPath, resp.StatusCode)
}

// Source serves one paginated list endpoint as a viewcache.Source.
type Source[T viewcache.Item] struct {
	c    *Client
	path string
}

func NewSource[T viewcache.Item](c *Client, path string) Source[T] {
	return Source[T]{c: c, path: path}
}

type cursorJSON struct {
	Before   time.Time `json:"before"`
	BeforeID string    `json:"beforeId"`
}

type pageResponse[T any] struct {
	Items      []T         `json:"items"`
	NextCursor *cursorJSON `json:"nextCursor"`
}

func (s Source[T]) FetchPage(ctx context.Context, req viewcache.PageRequest) (viewcache.Page[T], error) {
	q := url.Values{}
	q.Set("workspaceId", req.WorkspaceID)
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.Cursor != nil {
		q.Set("before", req.Cursor.Before.UTC().Format(time.RFC3339Nano))
		q.Set("beforeId", req.Cursor.BeforeID)
	}

	var pr pageResponse[T]
	if err := s.c.getJSON(ctx, s.path, q, &pr); err != nil {
		return viewcache.Page[T]{}, err
	}

	page := viewcache.Page[T]{Items: pr.Items}
	switch {
	case pr.NextCursor != nil:
		page.Next = &viewcache.Cursor{Before: pr.NextCursor.Before, BeforeID: pr.NextCursor.BeforeID}
	case len(pr.Items) == req.Limit && req.Limit > 0:
		// server omitted the cursor on a full page; continue from the last
		// item per the keyset contract
		page.Next = viewcache.CursorAfter(pr.Items[len(pr.Items)-1])
	}
	return page, nil
}

// ConfigFetch builds a viewcache.FetchFunc for a small config payload, e.g.
//
//	fetch := httpjson.ConfigFetch[ToolConfig](client, "/config", map[string]string{"workspaceId": ws})
func ConfigFetch[V any](c *Client, path string, params map[string]string) viewcache.FetchFunc[V] {
	return func(ctx context.Context) (V, error) {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		var out V
		err := c.getJSON(ctx, path, q, &out)
		return out, err
	}
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path, q), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	c.applyHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("httpjson: GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) resolve(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// readErrorMessage extracts a human-readable message from an error body.
// Accepts {"error": "..."} or {"message": "..."}; falls back to the raw
// body, trimmed and capped.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var shaped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &shaped) == nil {
		if shaped.Error != "" {
			return shaped.Error
		}
		if shaped.Message != "" {
			return shaped.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
