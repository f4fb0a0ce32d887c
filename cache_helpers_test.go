package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachedOrFetch(t *testing.T) {
	ctx := context.Background()
	stored := GeocodeResult{City: "Porto", Country: "Portugal"}
	fetched := GeocodeResult{City: "Braga", Country: "Portugal"}

	testCases := []struct {
		name        string
		getFunc     func(ctx context.Context, key string) (string, error)
		setFunc     func(ctx context.Context, key string, value any, expiration time.Duration) error
		fetchErr    error
		want        GeocodeResult
		wantFetches int
		wantSets    int
		wantErr     bool
	}{
		{
			name: "Cache hit skips fetch",
			getFunc: func(ctx context.Context, key string) (string, error) {
				return `{"city":"Porto","country":"Portugal"}`, nil
			},
			want: stored,
		},
		{
			name:        "Cache miss fetches and stores",
			want:        fetched,
			wantFetches: 1,
			wantSets:    1,
		},
		{
			name: "Corrupt entry is refetched",
			getFunc: func(ctx context.Context, key string) (string, error) {
				return `{"city":`, nil
			},
			want:        fetched,
			wantFetches: 1,
			wantSets:    1,
		},
		{
			name: "Cache read error still fetches",
			getFunc: func(ctx context.Context, key string) (string, error) {
				return "", errors.New("dial tcp: connection refused")
			},
			want:        fetched,
			wantFetches: 1,
			wantSets:    1,
		},
		{
			name: "Cache write error is not fatal",
			setFunc: func(ctx context.Context, key string, value any, expiration time.Duration) error {
				return errors.New("read only replica")
			},
			want:        fetched,
			wantFetches: 1,
			wantSets:    0,
		},
		{
			name:        "Fetch error is returned and nothing is stored",
			fetchErr:    &FetchError{Upstream: "nominatim", StatusCode: 503},
			wantFetches: 1,
			wantErr:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sets := 0
			cache := &mockCache{
				getFunc: tc.getFunc,
				setFunc: func(ctx context.Context, key string, value any, expiration time.Duration) error {
					assert.Equal(t, "geocode:test", key)
					assert.Equal(t, geocodeCacheTTL, expiration)
					if tc.setFunc != nil {
						return tc.setFunc(ctx, key, value, expiration)
					}
					sets++
					return nil
				},
			}
			fetches := 0
			fetch := func(context.Context) (GeocodeResult, error) {
				fetches++
				return fetched, tc.fetchErr
			}

			got, err := getCachedOrFetch(ctx, cache, discardLogger(), "geocode:test", geocodeCacheTTL, fetch)

			if tc.wantErr {
				var fe *FetchError
				require.ErrorAs(t, err, &fe)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
			assert.Equal(t, tc.wantFetches, fetches)
			assert.Equal(t, tc.wantSets, sets)
		})
	}
}

func TestCoordinateKey(t *testing.T) {
	assert.Equal(t, "weather:37.7749:-122.4194:celsius", coordinateKey("weather", 37.77491234, -122.41944, "celsius"))
	assert.Equal(t, "geocode:0.0000:0.0000", coordinateKey("geocode", 0, 0))
}
