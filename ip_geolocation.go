package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const upstreamIPAPI = "ipapi"

var errNoCoordinates = errors.New("response carried no usable coordinates")

// IPLocator estimates the caller's position from the public IP address.
type IPLocator interface {
	Locate(ctx context.Context) (Location, error)
}

// IPAPILocator queries ipapi.co. The service answers from the address the
// request comes from, which is the server's egress address.
type IPAPILocator struct {
	url        string
	httpClient *http.Client
}

func NewIPAPILocator(url string, httpClient *http.Client) *IPAPILocator {
	return &IPAPILocator{url: url, httpClient: httpClient}
}

func (l *IPAPILocator) Locate(ctx context.Context) (Location, error) {
	return fetchFromAPI(ctx, l.httpClient, upstreamIPAPI, l.url, nil, parseIPAPIResponse)
}

// parseIPAPIResponse treats a zero coordinate like a missing one; the free
// tier reports throttling as a 200 with an error flag and no position.
func parseIPAPIResponse(body io.Reader) (Location, error) {
	var response IPAPIResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return Location{}, fmt.Errorf("failed to decode ip geolocation response: %w", err)
	}
	if response.Error {
		return Location{}, fmt.Errorf("ip geolocation refused: %s", response.Reason)
	}
	if response.Latitude == nil || response.Longitude == nil || *response.Latitude == 0 || *response.Longitude == 0 {
		return Location{}, errNoCoordinates
	}
	return Location{
		Latitude:  *response.Latitude,
		Longitude: *response.Longitude,
		City:      cleanLabel(response.City),
		Country:   cleanLabel(response.CountryName),
		Source:    SourceIP,
	}, nil
}

type IPAPIResponse struct {
	IP          string   `json:"ip"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}
