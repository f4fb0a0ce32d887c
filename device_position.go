package main

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPositionUnavailable means the device has no fix to offer.
var ErrPositionUnavailable = errors.New("device position unavailable")

// DevicePositioner is the on-device geolocation capability. Available reports
// whether the capability exists at all; CurrentPosition may still fail.
type DevicePositioner interface {
	Available() bool
	CurrentPosition(ctx context.Context, maxAge time.Duration) (Coordinates, error)
}

// ReportedPositioner serves the most recent fix reported by the display's
// browser, which owns the actual positioning hardware.
type ReportedPositioner struct {
	mu  sync.RWMutex
	fix *Coordinates
	at  time.Time
	now func() time.Time
}

func NewReportedPositioner(now func() time.Time) *ReportedPositioner {
	if now == nil {
		now = time.Now
	}
	return &ReportedPositioner{now: now}
}

// Report records a fix taken by the client.
func (p *ReportedPositioner) Report(c Coordinates) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fix = &c
	p.at = p.now()
}

// Available is true once any fix has been reported.
func (p *ReportedPositioner) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fix != nil
}

// CurrentPosition returns the last fix if it is no older than maxAge.
func (p *ReportedPositioner) CurrentPosition(ctx context.Context, maxAge time.Duration) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fix == nil || p.now().Sub(p.at) > maxAge {
		return Coordinates{}, ErrPositionUnavailable
	}
	return *p.fix, nil
}
