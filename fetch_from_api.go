package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetchFromAPI performs a GET against an upstream service and hands a 200 body
// to parser. Every failure comes back as a *FetchError naming the upstream.
func fetchFromAPI[T any](
	ctx context.Context,
	client *http.Client,
	upstream string,
	url string,
	header http.Header,
	parser func(body io.Reader) (T, error),
) (result T, err error) {
	defer observeUpstream(upstream, time.Now(), &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result, newFetchError(upstream, 0, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return result, newFetchError(upstream, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, newFetchError(upstream, resp.StatusCode, fmt.Errorf("unexpected status: %s", resp.Status))
	}

	result, err = parser(resp.Body)
	if err != nil {
		return result, newFetchError(upstream, resp.StatusCode, err)
	}
	return result, nil
}
