package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diskofflaner/diskofflaner/internal/topology"
)

// DefaultSummaryTTL is how long a Summary is served from a SummaryCache before it is collected again.
const DefaultSummaryTTL = 30 * time.Minute

// Summary aggregates the OS identity with the disk topology.
type Summary struct {
	OSName       string `json:"os_name"`
	OSVersion    string `json:"os_version"`
	Release      string `json:"release"`
	Elevated     bool   `json:"is_elevated"`
	DiskCount    int    `json:"disk_count"`
	TotalBytes   uint64 `json:"total_size_bytes"`
	SystemDiskID string `json:"system_disk_id,omitempty"`
}

// Summarizer collects a Summary from a DiskBackend and the host.
type Summarizer struct {
	Backend  topology.DiskBackend
	Host     HostInfo
	Elevated func() bool
}

// Collect enumerates the disks and reads the OS identity. A host read failure leaves the OS fields empty; an
// enumeration failure fails the summary.
func (s Summarizer) Collect(ctx context.Context) (Summary, error) {
	disks, err := s.Backend.Enumerate(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("enumerate disks: %w", err)
	}

	summary := Summary{DiskCount: len(disks)}
	for _, d := range disks {
		summary.TotalBytes += d.Size
		if d.System {
			summary.SystemDiskID = d.ID
		}
	}

	if s.Elevated != nil {
		summary.Elevated = s.Elevated()
	}

	if s.Host != nil {
		info, err := s.Host(ctx)
		if err != nil {
			logrus.WithError(err).Debug("OS identity unavailable")
			return summary, nil
		}
		summary.OSName = info.Name
		summary.OSVersion = info.Version
		if product, err := NewProduct(info.Platform, info.Version); err == nil {
			summary.Release = product.Release.String()
		} else {
			logrus.WithError(err).WithField("version", info.Version).Debug("Unrecognized OS version")
		}
	}

	return summary, nil
}

// SummaryCache serves a Summary until it is older than its TTL. It is safe for concurrent use.
type SummaryCache struct {
	mu      sync.Mutex
	load    func(ctx context.Context) (Summary, error)
	ttl     time.Duration
	now     func() time.Time
	value   *Summary
	fetched time.Time
}

// NewSummaryCache creates a cache that fills itself with load. A non-positive ttl selects DefaultSummaryTTL.
func NewSummaryCache(load func(ctx context.Context) (Summary, error), ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{load: load, ttl: ttl, now: time.Now}
}

// Get returns the cached Summary while it is fresh and loads a new one otherwise. A failed load keeps the previous
// value for the next call.
func (c *SummaryCache) Get(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil && c.now().Sub(c.fetched) < c.ttl {
		return *c.value, nil
	}
	return c.refresh(ctx)
}

// Refresh loads a new Summary and overwrites the cached one regardless of its age.
func (c *SummaryCache) Refresh(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refresh(ctx)
}

func (c *SummaryCache) refresh(ctx context.Context) (Summary, error) {
	summary, err := c.load(ctx)
	if err != nil {
		return Summary{}, err
	}
	c.value = &summary
	c.fetched = c.now()
	return summary, nil
}
