package util

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	t.Parallel()

	type inner struct {
		Tags []string `json:"tags"`
	}
	src := &inner{Tags: []string{"a", "b"}}

	out, err := Clone(src)
	require.NoError(t, err)
	out.Tags[0] = "changed"

	assert.Equal(t, "a", src.Tags[0])
	assert.Equal(t, "b", out.Tags[1])
}

func TestConvertList(t *testing.T) {
	t.Parallel()

	double := ConvertList([]int{1, 2, 3}, func(i int) int { return i * 2 })
	assert.Equal(t, []int{2, 4, 6}, double)
}

func TestGetHistogramVec(t *testing.T) {
	t.Parallel()

	a, err := GetHistogramVec("util_test_histogram", "code")
	require.NoError(t, err)
	b, err := GetHistogramVec("util_test_histogram", "code")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestNewRestyClientRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRestyClient(nil, 5*time.Second, 2).
		SetRetryWaitTime(time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Millisecond)
	resp, err := client.R().Get(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(2), calls.Load())

	calls.Store(0)
	resp, err = NewRestyClient(nil, 5*time.Second, 0).R().Get(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.Equal(t, int32(1), calls.Load())
}
