package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// client is a minimal PostgREST-dialect table client: one HTTP call per
// table operation, filters in the query string (column=eq.value), JSON
// bodies, representation returned on request.
type client struct {
	baseURL string // e.g. https://proj.example.co (no trailing slash)
	apiKey  string
	http    *http.Client
}

func newClient(baseURL, apiKey string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) endpoint(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one table call. out, when non-nil, receives the decoded JSON
// response body.
func (c *client) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, table, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(table, query), reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if out != nil && (method == http.MethodPost || method == http.MethodPatch) {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return model.Conflict(table, "remote uniqueness violation")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Unknown(
			fmt.Sprintf("%s %s: remote returned %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(msg))),
			nil,
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, table, err)
	}
	return nil
}

// eq renders a PostgREST equality filter value.
func eq(v any) string {
	return fmt.Sprintf("eq.%v", v)
}

func (c *client) selectAll(ctx context.Context, table string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("select", "*")
	return c.do(ctx, http.MethodGet, table, query, nil, out)
}

func (c *client) insert(ctx context.Context, table string, body, out any) error {
	return c.do(ctx, http.MethodPost, table, nil, body, out)
}

func (c *client) update(ctx context.Context, table string, query url.Values, body any) error {
	return c.do(ctx, http.MethodPatch, table, query, body, nil)
}

func (c *client) delete(ctx context.Context, table string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, table, query, nil, nil)
}
