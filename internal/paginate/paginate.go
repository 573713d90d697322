// Package paginate turns token-paged fetchers into flat item iterators, so
// list-style client calls can expose one item at a time without the caller
// tracking page tokens.
package paginate

import "context"

// Fetcher loads one page for a token. Returning an empty nextToken ends the
// stream after the returned page is drained.
type Fetcher[T any] func(ctx context.Context, token []byte) (page []T, nextToken []byte, err error)

// Iterator yields items across page boundaries. Iteration is one-shot: it
// is not restartable and not safe for concurrent use.
type Iterator[T any] struct {
	ctx     context.Context
	fetch   Fetcher[T]
	page    []T
	idx     int
	token   []byte
	started bool
	done    bool
	err     error
}

// NewIterator wraps fetch into a flat iterator. No RPC happens until the
// first HasNext call.
func NewIterator[T any](ctx context.Context, fetch Fetcher[T]) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, fetch: fetch}
}

// HasNext reports whether Next will return an item or a fetch error. It
// fetches the next page when the current one is exhausted and a
// continuation token remains.
func (it *Iterator[T]) HasNext() bool {
	if it.err != nil {
		return true
	}
	for it.idx >= len(it.page) {
		if it.done && it.started {
			return false
		}
		page, token, err := it.fetch(it.ctx, it.token)
		it.started = true
		if err != nil {
			it.err = err
			return true
		}
		it.page, it.idx, it.token = page, 0, token
		it.done = len(token) == 0
	}
	return true
}

// Next returns the next item, or the fetch error HasNext surfaced. Calling
// Next without a preceding true HasNext returns the zero value.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.err != nil {
		err := it.err
		it.err = nil
		return zero, err
	}
	if it.idx >= len(it.page) {
		return zero, nil
	}
	item := it.page[it.idx]
	it.idx++
	return item, nil
}
