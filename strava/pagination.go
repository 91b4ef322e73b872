package strava

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"
)

// ErrNoNextPage is returned by NextPage when the previous page was the last
// one.
var ErrNoNextPage = errors.New("strava: no next page available")

// defaultPerPage matches the API's default page size.
const defaultPerPage = 30

// ListOptions specifies the optional parameters to various List methods that
// support pagination.
type ListOptions struct {
	// Page number, starting at 1.
	Page int `url:"page,omitempty"`

	// Number of items per page. The API defaults to 30 and caps at 200.
	PerPage int `url:"per_page,omitempty"`
}

// pageArgs returns the starting page and page size, zero meaning default.
func (o *ListOptions) pageArgs() (page, perPage int) {
	if o == nil {
		return 0, 0
	}
	return o.Page, o.PerPage
}

// queryValues encodes an options struct carrying url tags into query
// parameters. A nil opts yields empty values.
func queryValues(opts any) (url.Values, error) {
	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("strava: encoding query options: %w", err)
	}
	return v, nil
}

// Page is one page of a paginated collection. The API returns bare arrays,
// so the end of a collection shows up as a page with fewer records than
// requested.
type Page[T any] struct {
	Records []T

	page    int
	perPage int
	fetch   func(ctx context.Context, page, perPage int) ([]T, error)
}

// NextPage fetches the subsequent page through the same call that produced
// this one. Returns ErrNoNextPage once the collection is exhausted.
func (p *Page[T]) NextPage(ctx context.Context) (*Page[T], error) {
	if len(p.Records) < p.perPage {
		return nil, ErrNoNextPage
	}
	return fetchPage(ctx, p.page+1, p.perPage, p.fetch)
}

// fetchPage runs one page fetch and wraps the result so it can be walked
// forward.
func fetchPage[T any](ctx context.Context, page, perPage int, fetch func(ctx context.Context, page, perPage int) ([]T, error)) (*Page[T], error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	records, err := fetch(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	return &Page[T]{
		Records: records,
		page:    page,
		perPage: perPage,
		fetch:   fetch,
	}, nil
}

// listPage is the shared implementation behind paginated list endpoints: it
// merges page parameters into the encoded options and fetches one page of T.
func listPage[T any](ctx context.Context, c *Client, path string, opts any, start, size int) (*Page[T], error) {
	return fetchPage(ctx, start, size, func(ctx context.Context, page, perPage int) ([]T, error) {
		q, err := queryValues(opts)
		if err != nil {
			return nil, err
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(perPage))
		var records []T
		if err := c.get(ctx, path, q, &records); err != nil {
			return nil, err
		}
		return records, nil
	})
}
