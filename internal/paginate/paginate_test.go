package paginate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorFlattensPages(t *testing.T) {
	pages := map[string][]int{
		"":   {1, 2, 3},
		"p2": {4},
		"p3": {5, 6},
	}
	next := map[string]string{"": "p2", "p2": "p3", "p3": ""}

	calls := 0
	it := NewIterator(context.Background(), func(ctx context.Context, token []byte) ([]int, []byte, error) {
		calls++
		return pages[string(token)], []byte(next[string(token)]), nil
	})

	var got []int
	for it.HasNext() {
		v, err := it.Next()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
	assert.Equal(t, 3, calls)
}

func TestIteratorEmptyMiddlePage(t *testing.T) {
	pages := [][]int{{1}, {}, {2}}
	i := 0
	it := NewIterator(context.Background(), func(ctx context.Context, token []byte) ([]int, []byte, error) {
		page := pages[i]
		i++
		if i == len(pages) {
			return page, nil, nil
		}
		return page, []byte{byte(i)}, nil
	})

	var got []int
	for it.HasNext() {
		v, err := it.Next()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)
}

func TestIteratorNoItems(t *testing.T) {
	it := NewIterator(context.Background(), func(ctx context.Context, token []byte) ([]int, []byte, error) {
		return nil, nil, nil
	})
	assert.False(t, it.HasNext())
}

func TestIteratorSurfacesFetchError(t *testing.T) {
	fetchErr := errors.New("visibility store unavailable")
	it := NewIterator(context.Background(), func(ctx context.Context, token []byte) ([]int, []byte, error) {
		if token == nil {
			return []int{1}, []byte("p2"), nil
		}
		return nil, nil, fetchErr
	})

	require.True(t, it.HasNext())
	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.True(t, it.HasNext())
	_, err = it.Next()
	assert.ErrorIs(t, err, fetchErr)
}
