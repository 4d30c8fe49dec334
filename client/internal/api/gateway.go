// Package api is the remote data gateway: point reads, point writes
// and aggregate counts against the hosted relational backend. It owns
// no state; engines depend on the narrow slices of it they declare.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/errs"
	"github.com/udinmoInc/law/client/internal/types"
)

// HTTPClient interface for dependency injection in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway performs HTTP operations against the backend REST surface.
type Gateway struct {
	http    HTTPClient
	baseURL string
	log     zerolog.Logger
}

// New constructs a Gateway. baseURL must not have a trailing slash.
func New(httpClient HTTPClient, baseURL string, log zerolog.Logger) *Gateway {
	return &Gateway{
		http:    httpClient,
		baseURL: baseURL,
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

// restURL builds a /rest/v1 URL for table with the given query.
func (g *Gateway) restURL(table string, query url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", g.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (g *Gateway) doJSON(ctx context.Context, method, rawURL string, body, out any, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(b)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Correlates client and backend logs for one logical operation.
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := g.http.Do(req)
	if err != nil {
		return errs.FromNetwork(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return types.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return types.ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errs.FromStatus(resp.StatusCode, op)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (g *Gateway) get(ctx context.Context, rawURL string, out any, op string) error {
	return g.doJSON(ctx, http.MethodGet, rawURL, nil, out, op)
}

func (g *Gateway) post(ctx context.Context, rawURL string, body, out any, op string) error {
	return g.doJSON(ctx, http.MethodPost, rawURL, body, out, op)
}

func (g *Gateway) patch(ctx context.Context, rawURL string, body, out any, op string) error {
	return g.doJSON(ctx, http.MethodPatch, rawURL, body, out, op)
}

func (g *Gateway) delete(ctx context.Context, rawURL string, op string) error {
	return g.doJSON(ctx, http.MethodDelete, rawURL, nil, nil, op)
}

// Count returns the number of rows in table matching filter.
func (g *Gateway) Count(ctx context.Context, table string, filter url.Values) (int, error) {
	q := url.Values{}
	for k, vs := range filter {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("select", "count")

	var out []struct {
		Count int `json:"count"`
	}
	if err := g.get(ctx, g.restURL(table, q), &out, "count "+table); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Count, nil
}
