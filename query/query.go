package query

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps Offset within a Postgres integer for any page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

type Order int

const (
	Ascending Order = iota
	Descending
)

type Option func(*Options)

func WithPage(page int) Option {
	return func(o *Options) {
		if page > 0 {
			o.Page = min(page, MaxPage)
		}
	}
}

func WithPageSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.PageSize = min(size, MaxPageSize)
		}
	}
}

func WithOrder(order Order) Option {
	return func(o *Options) {
		o.Order = order
	}
}

func WithAscending() Option {
	return func(o *Options) {
		o.Order = Ascending
	}
}

func WithDescending() Option {
	return func(o *Options) {
		o.Order = Descending
	}
}

type Options struct {
	Page     int
	PageSize int
	Order    Order
}

func DefaultOptions() Options {
	return Options{
		Page:     1,
		PageSize: DefaultPageSize,
		Order:    Ascending,
	}
}

func ApplyOptions(options ...Option) Options {
	applied := DefaultOptions()
	for _, option := range options {
		option(&applied)
	}
	return applied
}

// Offset is the number of items skipped before the current page.
func (o Options) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// HasMore reports whether items remain after the current page.
func (o Options) HasMore(total int) bool {
	return o.Offset()+o.PageSize < total
}

// Window clamps the current page to [0, total) and returns slice bounds.
func (o Options) Window(total int) (start, end int) {
	start = max(min(o.Offset(), total), 0)
	end = min(start+o.PageSize, total)
	return start, end
}

// ParsePage parses page and page_size query values.
//
// Empty values fall back to defaults. Values out of range return ok == false,
// the caller is expected to reject the request.
func ParsePage(page, pageSize string) (opts []Option, ok bool) {
	if page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 || p > MaxPage {
			return nil, false
		}
		opts = append(opts, WithPage(p))
	}

	if pageSize != "" {
		s, err := strconv.Atoi(pageSize)
		if err != nil || s < 1 || s > MaxPageSize {
			return nil, false
		}
		opts = append(opts, WithPageSize(s))
	}

	return opts, true
}
