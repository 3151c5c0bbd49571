package transport

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCustomHTTPClientIsMemoized(t *testing.T) {
	httpClient = nil
	c1, err := GetCustomHTTPClient()
	require.NoError(t, err)
	c2, err := GetCustomHTTPClient()
	require.NoError(t, err)
	assert.Same(t, c1, c2)
}

func TestNewGzipReaderDecompresses(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewGzipReader(io.NopCloser(&buf))
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}
