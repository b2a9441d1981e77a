package contextual

import (
	"context"

	"github.com/diskofflaner/diskofflaner/internal/system"
	"github.com/diskofflaner/diskofflaner/internal/topology"
)

type key int

const (
	// backendKey is used to set and retrieve context held values for DiskBackend.
	backendKey key = iota
	// summaryKey is used to set and retrieve context held values for SummaryCache.
	summaryKey
)

// WithBackend extends the context to provide a DiskBackend.
func WithBackend(ctx context.Context, backend topology.DiskBackend) context.Context {
	return context.WithValue(ctx, backendKey, backend)
}

// Backend fetches the DiskBackend provided in ctx.
func Backend(ctx context.Context) topology.DiskBackend {
	if val := ctx.Value(backendKey); val != nil {
		if v, ok := val.(topology.DiskBackend); ok {
			return v
		}
		panic("incoherent context")
	}

	return nil
}

// WithSummary extends the context to provide a SummaryCache.
func WithSummary(ctx context.Context, cache *system.SummaryCache) context.Context {
	return context.WithValue(ctx, summaryKey, cache)
}

// Summary fetches the SummaryCache provided in ctx.
func Summary(ctx context.Context) *system.SummaryCache {
	if val := ctx.Value(summaryKey); val != nil {
		if v, ok := val.(*system.SummaryCache); ok {
			return v
		}
		panic("incoherent context")
	}

	return nil
}
