package esi

import (
	"context"
	"net/http"
	"testing"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"

	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryETags map[string]string

func (m memoryETags) ETag(ctx context.Context, operation string) (string, error) {
	return m[operation], nil
}

func (m memoryETags) SetETag(ctx context.Context, operation, etag string) error {
	m[operation] = etag
	return nil
}

func response(status int, headers map[string]string) *http.Response {
	resp := &http.Response{StatusCode: status, Header: make(http.Header)}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestPaginateFollowsPagesInOrder(t *testing.T) {
	etags := memoryETags{"op": `"old"`}
	var sentETags []string
	fetch := func(page int32, etag string) ([]int, *http.Response, error) {
		sentETags = append(sentETags, etag)
		return []int{int(page)}, response(http.StatusOK, map[string]string{"X-Pages": "3", "ETag": `"new"`}), nil
	}
	var seen []int
	err := paginate(context.Background(), etags, "op", false, fetch, func(page int, records []int) error {
		assert.Equal(t, []int{page}, records)
		seen = append(seen, page)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, []string{`"old"`, "", ""}, sentETags)
	assert.Equal(t, `"new"`, etags["op"])
}

func TestPaginateNotModified(t *testing.T) {
	tests := []struct {
		name  string
		resp  *http.Response
		err   error
		force bool
		want  error
	}{
		{
			name: "304 from ESI",
			resp: response(http.StatusNotModified, nil),
			err:  errors.New("304 Not Modified"),
			want: ledger.ErrNotModified,
		},
		{
			name: "served from local cache",
			resp: response(http.StatusOK, map[string]string{httpcache.XFromCache: "1"}),
			want: ledger.ErrNotModified,
		},
		{
			name:  "forced refresh ignores the cache",
			resp:  response(http.StatusOK, map[string]string{httpcache.XFromCache: "1"}),
			force: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			etags := memoryETags{}
			called := false
			err := paginate(context.Background(), etags, "op", tt.force, func(page int32, etag string) ([]int, *http.Response, error) {
				return nil, tt.resp, tt.err
			}, func(page int, records []int) error {
				called = true
				return nil
			})
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "%v", err)
				assert.False(t, called)
				return
			}
			require.NoError(t, err)
			assert.True(t, called)
		})
	}
}

func TestPaginateKeepsETagOnFailure(t *testing.T) {
	etags := memoryETags{"op": `"old"`}
	fetch := func(page int32, etag string) ([]int, *http.Response, error) {
		return []int{1}, response(http.StatusOK, map[string]string{"X-Pages": "2", "ETag": `"new"`}), nil
	}
	err := paginate(context.Background(), etags, "op", false, fetch, func(page int, records []int) error {
		if page == 2 {
			return errors.New("store failure")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, `"old"`, etags["op"])
}

func TestClassify(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, ledger.ErrNotModified, classify(response(http.StatusNotModified, nil), cause))
	assert.True(t, ledger.IsTransient(classify(response(420, nil), cause)))
	assert.True(t, ledger.IsTransient(classify(response(http.StatusGatewayTimeout, nil), cause)))
	assert.True(t, ledger.IsTransient(classify(nil, cause)))

	err := classify(response(http.StatusNotFound, nil), cause)
	assert.False(t, ledger.IsTransient(err))
	assert.EqualError(t, err, "ESI responded with HTTP 404: boom")
}

func TestParseDay(t *testing.T) {
	day, err := parseDay("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, day.Day())

	day, err = parseDay("2024-03-05 00:00:00 +0000 UTC")
	require.NoError(t, err)
	assert.Equal(t, 5, day.Day())

	_, err = parseDay("")
	assert.Error(t, err)
}
