package query

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	require.Equal(t, 1, o.Page)
	require.Equal(t, DefaultPageSize, o.PageSize)
	require.Equal(t, Ascending, o.Order)
	require.Equal(t, 0, o.Offset())

	o = ApplyOptions(WithPage(3), WithPageSize(10), WithDescending())
	require.Equal(t, 20, o.Offset())
	require.Equal(t, Descending, o.Order)
	require.True(t, o.HasMore(31))
	require.False(t, o.HasMore(30))

	o = ApplyOptions(WithPageSize(1000), WithPage(-1))
	require.Equal(t, MaxPageSize, o.PageSize)
	require.Equal(t, 1, o.Page)

	o = ApplyOptions(WithPage(math.MaxInt), WithPageSize(MaxPageSize))
	require.Equal(t, MaxPage, o.Page)
	require.Positive(t, o.Offset())
	require.False(t, o.HasMore(10))
}

func TestWindow(t *testing.T) {
	o := ApplyOptions(WithPage(2), WithPageSize(10))

	start, end := o.Window(15)
	require.Equal(t, 10, start)
	require.Equal(t, 15, end)

	start, end = o.Window(5)
	require.Equal(t, 5, start)
	require.Equal(t, 5, end)

	start, end = ApplyOptions(WithPage(math.MaxInt)).Window(3)
	require.Equal(t, 3, start)
	require.Equal(t, 3, end)
}

func TestParsePage(t *testing.T) {
	opts, ok := ParsePage("", "")
	require.True(t, ok)
	require.Empty(t, opts)

	opts, ok = ParsePage(strconv.Itoa(MaxPage), "100")
	require.True(t, ok)
	require.Equal(t, (MaxPage-1)*MaxPageSize, ApplyOptions(opts...).Offset())

	opts, ok = ParsePage("2", "50")
	require.True(t, ok)
	applied := ApplyOptions(opts...)
	require.Equal(t, 2, applied.Page)
	require.Equal(t, 50, applied.PageSize)

	for _, tc := range []struct{ page, size string }{
		{"0", ""},
		{"abc", ""},
		{"", "0"},
		{"", "101"},
		{"", "x"},
		{"9223372036854775807", "20"},
		{strconv.Itoa(MaxPage + 1), ""},
	} {
		_, ok := ParsePage(tc.page, tc.size)
		require.False(t, ok, "page=%q size=%q", tc.page, tc.size)
	}
}
