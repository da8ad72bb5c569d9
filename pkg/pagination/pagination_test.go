package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	require.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
	require.Equal(t, 5, Params{Page: 2, Limit: 5}.Offset())
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(23, Params{Page: 3, Limit: 10})
	require.Equal(t, Metadata{Total: 23, Page: 3, LastPage: 3}, m)

	m = NewMetadata(20, Params{Page: 1, Limit: 10})
	require.Equal(t, Metadata{Total: 20, Page: 1, LastPage: 2}, m)

	m = NewMetadata(0, Params{Page: 1, Limit: 10})
	require.Equal(t, Metadata{Total: 0, Page: 1, LastPage: 0}, m)

	m = NewMetadata(1, Params{Page: 1, Limit: 10})
	require.Equal(t, Metadata{Total: 1, Page: 1, LastPage: 1}, m)
}
