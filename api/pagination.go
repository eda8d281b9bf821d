package api

import (
	"context"
	"net/url"
	"strconv"
)

type Pagination struct {
	Page         int  `json:"page" yaml:"page"`
	PerPage      int  `json:"per_page" yaml:"per_page"`
	PreviousPage *int `json:"previous_page" yaml:"previous_page"`
	NextPage     *int `json:"next_page" yaml:"next_page"`
	LastPage     *int `json:"last_page" yaml:"last_page"`
	TotalEntries *int `json:"total_entries" yaml:"total_entries"`
}

type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

type ListOpts struct {
	Page          int
	PerPage       int
	LabelSelector string
	Sort          string
}

func (o ListOpts) Values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.LabelSelector != "" {
		v.Set("label_selector", o.LabelSelector)
	}
	if o.Sort != "" {
		v.Set("sort", o.Sort)
	}

	return v
}

// PageFunc fetches a single page of a collection.
type PageFunc[T any] func(ctx context.Context, opts ListOpts) ([]T, Meta, error)

// Iterator walks a paginated collection one item at a time, fetching pages
// on demand.
type Iterator[T any] struct {
	fetch PageFunc[T]
	opts  ListOpts

	buf  []T
	idx  int
	cur  T
	page Pagination
	err  error
	done bool
}

func NewIterator[T any](fetch PageFunc[T], opts ListOpts) *Iterator[T] {
	if opts.Page < 1 {
		opts.Page = 1
	}

	return &Iterator[T]{
		fetch: fetch,
		opts:  opts,
	}
}

func (it *Iterator[T]) Next(ctx context.Context) bool {
	for it.idx >= len(it.buf) {
		if it.done || it.err != nil {
			return false
		}

		items, meta, err := it.fetch(ctx, it.opts)
		if err != nil {
			it.err = err
			return false
		}

		it.buf = items
		it.idx = 0

		if meta.Pagination == nil || meta.Pagination.NextPage == nil || *meta.Pagination.NextPage <= it.opts.Page {
			it.done = true
		} else {
			it.opts.Page = *meta.Pagination.NextPage
		}
		if meta.Pagination != nil {
			it.page = *meta.Pagination
		}
	}

	it.cur = it.buf[it.idx]
	it.idx++

	return true
}

func (it *Iterator[T]) Value() T {
	return it.cur
}

func (it *Iterator[T]) Err() error {
	return it.err
}

// Page returns the pagination metadata of the most recently fetched page.
func (it *Iterator[T]) Page() Pagination {
	return it.page
}

// All drains every page starting from opts.Page.
func All[T any](ctx context.Context, fetch PageFunc[T], opts ListOpts) ([]T, error) {
	it := NewIterator(fetch, opts)

	var out []T
	for it.Next(ctx) {
		out = append(out, it.Value())
	}

	return out, it.Err()
}
